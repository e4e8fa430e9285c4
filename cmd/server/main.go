package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"namegate/internal/events"
	"namegate/internal/ledger"
	"namegate/internal/naming"
	"namegate/internal/platform/config"
	"namegate/internal/platform/httpserver"
	"namegate/internal/platform/logger"
	platformredis "namegate/internal/platform/redis"
	"namegate/internal/registrar/metrics"
	"namegate/internal/registrar/service"
	"namegate/internal/registrar/store"
	"namegate/internal/registrar/store/recent"
	httptransport "namegate/internal/transport/http"
	"namegate/pkg/ens"
)

const recentFeedSize = 100

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcCfg := service.Config{
		RegistrarAddr:       cfg.RegistrarAddr,
		LegacyRegistrarAddr: cfg.LegacyRegistrarAddr,
		RootNode:            ens.NameHash(cfg.RootName),
		Registry:            naming.NewMemoryRegistry(),
		Resolver:            naming.NewMemoryResolver(),
		Deeds:               naming.NewMemoryDeedRegistry(ens.NameHash(cfg.RootName)),
		Ledger:              ledger.NewMemoryLedger(),
		Metrics:             metrics.New(),
		Logger:              log,
	}

	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		domains := store.NewPostgresStore(db)
		if err := domains.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		svcCfg.Domains = domains
		svcCfg.Custody = store.NewPostgresCustodyStore(db)
		log.Info("using postgres stores")
	} else {
		svcCfg.Domains = store.NewInMemoryDomainStore()
		svcCfg.Custody = store.NewInMemoryCustodyStore()
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis())
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		svcCfg.Recent = recent.New(redisClient.Client, recentFeedSize)
		log.Info("recent registration feed enabled")
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		svcCfg.Publisher = publisher
		log.Info("kafka event publisher enabled", "topic", cfg.KafkaTopic)
	}

	svc := service.New(svcCfg)
	handler := httptransport.NewHandler(svc, svcCfg.Recent, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, []byte(cfg.JWTSigningKey)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
