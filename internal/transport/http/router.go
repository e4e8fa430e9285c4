// Package httptransport is the thin HTTP layer over the registrar service. It
// delegates to the service without embedding business logic so transport
// concerns remain isolated. The bearer token's addr claim stands in for the
// host ledger's transaction origin.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namegate/pkg/platform/middleware/auth"
	"namegate/pkg/platform/sentinel"
)

// NewRouter wires all public endpoints. Reads are open; every mutating entry
// point requires an authenticated caller address.
func NewRouter(h *Handler, jwtSigningKey []byte) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/v1/interfaces/{id}", h.handleSupportsInterface)
	r.Get("/v1/domains/{label}/query", h.handleQuery)
	r.Get("/v1/domains/{label}/rent", h.handleRentDue)
	r.Get("/v1/custody/{label}/owner", h.handleUltimateOwner)
	r.Get("/v1/registrations/recent", h.handleRecent)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtSigningKey))

		r.Post("/v1/domains", h.handleConfigureDomain)
		r.Delete("/v1/domains/{name}", h.handleUnlistDomain)
		r.Post("/v1/domains/{name}/transfer", h.handleTransfer)
		r.Put("/v1/domains/{name}/resolver", h.handleSetResolver)
		r.Post("/v1/domains/{label}/subdomains", h.handleRegister)
		r.Post("/v1/domains/{label}/rent/payments", h.handlePayRent)

		r.Post("/v1/custody/{label}/override", h.handleSetCustodyOverride)
		r.Post("/v1/custody/{label}/reclaim", h.handleReclaimCustody)
		r.Post("/v1/custody/{label}/assign", h.handleAssignOwnership)
	})

	return r
}

// writeError centralizes sentinel translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sentinel.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sentinel.ErrNameTaken),
		errors.Is(err, sentinel.ErrNotListed),
		errors.Is(err, sentinel.ErrSelfOverride),
		errors.Is(err, sentinel.ErrStillDelegated),
		errors.Is(err, sentinel.ErrSurrendered):
		status = http.StatusConflict
	case errors.Is(err, sentinel.ErrUnderpaid),
		errors.Is(err, sentinel.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, sentinel.ErrUnsupported):
		status = http.StatusNotImplemented
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
