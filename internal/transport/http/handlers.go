package httptransport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"namegate/internal/registrar"
	"namegate/internal/registrar/store/recent"
	"namegate/pkg/ens"
	"namegate/pkg/platform/middleware/auth"
)

// RegistrarService is the transport's view of the registrar.
type RegistrarService interface {
	ConfigureDomain(ctx context.Context, caller common.Address, name string, price *big.Int, referralFeePPM uint32) error
	UnlistDomain(ctx context.Context, caller common.Address, name string) error
	Transfer(ctx context.Context, caller common.Address, name string, newOwner common.Address) error
	SetResolver(ctx context.Context, caller common.Address, name string, resolver common.Address) error
	Register(ctx context.Context, caller common.Address, label common.Hash, subdomain string, owner, referrer, resolver common.Address, payment *big.Int) error
	Query(ctx context.Context, label common.Hash, subdomain string) (registrar.QueryResult, error)
	RentDue(ctx context.Context, label common.Hash, subdomain string) (time.Time, error)
	PayRent(ctx context.Context, caller common.Address, label common.Hash, subdomain string, payment *big.Int) error
	SupportsInterface(id ens.InterfaceID) bool
	UltimateOwner(ctx context.Context, label common.Hash) (common.Address, error)
	SetCustodyOverride(ctx context.Context, caller common.Address, label common.Hash, newOwner common.Address) error
	ReclaimCustody(ctx context.Context, caller common.Address, label common.Hash) error
	AssignExternalOwnership(ctx context.Context, caller common.Address, label common.Hash, newOwner common.Address) error
}

// Handler delegates HTTP requests to the registrar service.
type Handler struct {
	svc    RegistrarService
	feed   *recent.Feed
	logger *slog.Logger
}

func NewHandler(svc RegistrarService, feed *recent.Feed, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, feed: feed, logger: logger}
}

type configureDomainRequest struct {
	Name           string `json:"name"`
	Price          string `json:"price"`
	ReferralFeePPM uint32 `json:"referral_fee_ppm"`
}

type registerRequest struct {
	Subdomain string `json:"subdomain"`
	Owner     string `json:"owner,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	Resolver  string `json:"resolver"`
	Payment   string `json:"payment"`
}

type addressRequest struct {
	Address string `json:"address"`
}

type queryResponse struct {
	Name           string `json:"name"`
	Price          string `json:"price"`
	Rent           string `json:"rent"`
	ReferralFeePPM uint32 `json:"referral_fee_ppm"`
	Available      bool   `json:"available"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSupportsInterface(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(chi.URLParam(r, "id"), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != 4 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "interface id must be 4 hex bytes"})
		return
	}
	var id ens.InterfaceID
	copy(id[:], b)
	writeJSON(w, http.StatusOK, map[string]bool{"supported": h.svc.SupportsInterface(id)})
}

func (h *Handler) handleConfigureDomain(w http.ResponseWriter, r *http.Request) {
	var req configureDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if req.Name == "" || strings.Contains(req.Name, ".") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name must be a single label"})
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.ConfigureDomain(r.Context(), auth.Caller(r.Context()), req.Name, price, req.ReferralFeePPM); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"label": ens.LabelHash(req.Name).Hex(),
	})
}

func (h *Handler) handleUnlistDomain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.svc.UnlistDomain(r.Context(), auth.Caller(r.Context()), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	newOwner, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	if err := h.svc.Transfer(r.Context(), auth.Caller(r.Context()), name, newOwner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetResolver(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	resolver, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	if err := h.svc.SetResolver(r.Context(), auth.Caller(r.Context()), name, resolver); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if req.Subdomain == "" || strings.Contains(req.Subdomain, ".") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subdomain must be a single label"})
		return
	}
	if !common.IsHexAddress(req.Resolver) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "resolver address required"})
		return
	}
	owner, err := parseOptionalAddress(req.Owner)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed owner address"})
		return
	}
	referrer, err := parseOptionalAddress(req.Referrer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed referrer address"})
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	caller := auth.Caller(r.Context())
	if err := h.svc.Register(r.Context(), caller, label, req.Subdomain, owner, referrer, common.HexToAddress(req.Resolver), payment); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"label":     label.Hex(),
		"subdomain": req.Subdomain,
	})
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Query(r.Context(), label, r.URL.Query().Get("subdomain"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Name:           res.Name,
		Price:          res.Price.String(),
		Rent:           res.Rent.String(),
		ReferralFeePPM: res.ReferralFeePPM,
		Available:      res.Name != "",
	})
}

func (h *Handler) handleRentDue(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	due, err := h.svc.RentDue(r.Context(), label, r.URL.Query().Get("subdomain"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"due": due.Format(time.RFC3339)})
}

func (h *Handler) handlePayRent(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	err := h.svc.PayRent(r.Context(), auth.Caller(r.Context()), label, r.URL.Query().Get("subdomain"), new(big.Int))
	writeError(w, err)
}

func (h *Handler) handleUltimateOwner(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	owner, err := h.svc.UltimateOwner(r.Context(), label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": owner.Hex()})
}

func (h *Handler) handleSetCustodyOverride(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	newOwner, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	if err := h.svc.SetCustodyOverride(r.Context(), auth.Caller(r.Context()), label, newOwner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReclaimCustody(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	if err := h.svc.ReclaimCustody(r.Context(), auth.Caller(r.Context()), label); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssignOwnership(w http.ResponseWriter, r *http.Request) {
	label, ok := parseLabel(w, r)
	if !ok {
		return
	}
	newOwner, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	if err := h.svc.AssignExternalOwnership(r.Context(), auth.Caller(r.Context()), label, newOwner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	var n int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, _ = strconv.ParseInt(raw, 10, 64)
	}
	entries, err := h.feed.List(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []recent.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// parseLabel reads the {label} URL parameter as a 32-byte hex hash.
func parseLabel(w http.ResponseWriter, r *http.Request) (common.Hash, bool) {
	raw := strings.TrimPrefix(chi.URLParam(r, "label"), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != common.HashLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label must be a 32-byte hex hash"})
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}

func decodeAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !common.IsHexAddress(req.Address) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "address required"})
		return common.Address{}, false
	}
	return common.HexToAddress(req.Address), true
}

func parseOptionalAddress(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("malformed address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// parseAmount reads a decimal minor-unit amount; empty means zero.
func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be a non-negative decimal string")
	}
	return amount, nil
}
