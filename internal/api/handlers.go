package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"customs-clearance/internal/config"
	"customs-clearance/internal/directory"
	"customs-clearance/internal/domain"
	"customs-clearance/internal/reference"
	"customs-clearance/internal/tracker"
	appTemporal "customs-clearance/internal/temporal"
)

// ReviewSender delivers reviewer decisions to running document reviews.
type ReviewSender interface {
	SendDecision(ctx context.Context, shipmentID, documentSlug string, decision appTemporal.ReviewDecisionSignal) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	cfg      config.Config
	tracker  *tracker.Service
	parties  directory.Store
	reviews  ReviewSender
	checks   map[string]Pinger
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler wires the HTTP handlers. reviews may be nil when Temporal is
// disabled; checks are pinged by /readyz.
func NewHandler(cfg config.Config, svc *tracker.Service, parties directory.Store, reviews ReviewSender, checks map[string]Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:      cfg,
		tracker:  svc,
		parties:  parties,
		reviews:  reviews,
		checks:   checks,
		validate: validator.New(),
		logger:   logger,
	}
}

type referenceRequest struct {
	TransactionType domain.TransactionType `json:"transactionType" validate:"required,oneof=IMS IMA ACN ACR EXP"`
	Year            string                 `json:"year" validate:"omitempty,len=2,numeric"`
}

type partyRequest struct {
	Type   directory.PartyRole `json:"type" validate:"required,oneof=consignee exporter"`
	Entity domain.PartyInfo    `json:"entity"`
}

func (h *Handler) ListStages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stages": domain.ListStages()})
}

func (h *Handler) IssueReference(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	issued, err := h.tracker.IssueReference(r.Context(), req.TransactionType, req.Year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, issued)
}

func (h *Handler) ValidateReference(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	parsed, err := reference.Parse(number)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"referenceNumber": number, "valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"referenceNumber": number, "valid": true, "parsed": parsed})
}

func (h *Handler) ListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.parties.List(r.Context(), directory.PartyRole(r.URL.Query().Get("type")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": parties})
}

func (h *Handler) SaveParty(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.parties.Save(r.Context(), req.Type, req.Entity); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "check": name})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
