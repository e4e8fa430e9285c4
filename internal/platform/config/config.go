package config

import (
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// RegistrarAddr is this registrar's own address on the ledger and in the
	// external registry.
	RegistrarAddr common.Address

	// LegacyRegistrarAddr is the legacy auction registrar this one succeeds.
	LegacyRegistrarAddr common.Address

	// RootName is the top-level name the registrar allocates under ("eth").
	RootName string

	// PostgresURL enables the postgres-backed stores when set.
	PostgresURL string

	// RedisURL enables the recent-registration feed when set.
	RedisURL string

	// KafkaBrokers enables the Kafka event publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string
}

// RedisConfig tunes the shared redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("NAMEGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	rootName := os.Getenv("NAMEGATE_ROOT_NAME")
	if rootName == "" {
		rootName = "eth"
	}
	topic := os.Getenv("NAMEGATE_KAFKA_TOPIC")
	if topic == "" {
		topic = "namegate.events"
	}
	var brokers []string
	if raw := os.Getenv("NAMEGATE_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	jwtSigningKey := os.Getenv("NAMEGATE_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:                addr,
		RegistrarAddr:       common.HexToAddress(os.Getenv("NAMEGATE_REGISTRAR_ADDR")),
		LegacyRegistrarAddr: common.HexToAddress(os.Getenv("NAMEGATE_LEGACY_REGISTRAR_ADDR")),
		RootName:            rootName,
		PostgresURL:         os.Getenv("NAMEGATE_POSTGRES_URL"),
		RedisURL:            os.Getenv("NAMEGATE_REDIS_URL"),
		KafkaBrokers:        brokers,
		KafkaTopic:          topic,
		JWTSigningKey:       jwtSigningKey,
	}
}

// Redis returns the redis client configuration with defaults applied.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
