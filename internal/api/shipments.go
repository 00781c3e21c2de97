package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"customs-clearance/internal/domain"
	"customs-clearance/internal/tracker"
	appTemporal "customs-clearance/internal/temporal"
)

type createShipmentRequest struct {
	TransactionType domain.TransactionType `json:"transactionType"`
	ShipmentType    domain.TransactionType `json:"shipmentType,omitempty"`
	FormData        domain.ShipmentForm    `json:"formData"`
}

type noteRequest struct {
	Note string `json:"note" validate:"required"`
}

type reviewRequest struct {
	Decision domain.ReviewDecisionType `json:"decision" validate:"required,oneof=approve finalize reject"`
	Reviewer string                    `json:"reviewer,omitempty"`
	Reason   string                    `json:"reason,omitempty"`
}

func (h *Handler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	transactionType := req.TransactionType
	if transactionType == "" {
		transactionType = req.ShipmentType
	}

	rec, err := h.tracker.CreateShipment(r.Context(), transactionType, req.FormData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) ListShipments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		h.writeBadRequest(w, "page must be a positive integer")
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		h.writeBadRequest(w, "limit must be a positive integer")
		return
	}

	result, err := h.tracker.ListShipments(r.Context(), tracker.ListQuery{
		Filter: domain.ShipmentFilter{
			Status:          q.Get("status"),
			TransactionType: domain.TransactionType(q.Get("type")),
		},
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetShipment(w http.ResponseWriter, r *http.Request) {
	rec, err := h.tracker.GetShipment(r.Context(), chi.URLParam(r, "shipmentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) UpdateShipment(w http.ResponseWriter, r *http.Request) {
	var patch domain.ShipmentPatch
	if !h.decodeAndValidate(w, r, &patch) {
		return
	}
	rec, err := h.tracker.UpdateShipment(r.Context(), chi.URLParam(r, "shipmentId"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	rec, err := h.tracker.AdvanceStage(r.Context(), chi.URLParam(r, "shipmentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	view, err := h.tracker.Timeline(r.Context(), chi.URLParam(r, "shipmentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.tracker.AddNote(r.Context(), chi.URLParam(r, "shipmentId"), req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shipment_id": rec.ID, "notes": rec.Notes})
}

// UploadDocument accepts a multipart form with the checklist document name in
// "name" and the bytes in "file".
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	shipmentID := chi.URLParam(r, "shipmentId")
	if _, err := h.tracker.GetShipment(r.Context(), shipmentID); err != nil {
		h.writeError(w, r, err)
		return
	}

	limit := h.cfg.AllowedUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		h.writeBadRequest(w, "invalid multipart payload")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		h.writeBadRequest(w, "name form field is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeBadRequest(w, "file form field is required")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.writeBadRequest(w, "failed to read file")
		return
	}
	if int64(len(body)) > limit {
		h.writeBadRequest(w, "file exceeds size limit")
		return
	}
	contentType, ok := detectUploadType(body)
	if !ok {
		h.writeBadRequest(w, "only PDF, JPEG and PNG documents are accepted")
		return
	}

	slot, err := h.tracker.UploadDocument(r.Context(), shipmentID, tracker.Upload{
		Name:        name,
		Filename:    header.Filename,
		ContentType: contentType,
		Content:     body,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *Handler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	h.applyDocument(w, r, h.tracker.VerifyDocument)
}

func (h *Handler) FinalizeDocument(w http.ResponseWriter, r *http.Request) {
	h.applyDocument(w, r, h.tracker.FinalizeDocument)
}

// SubmitReview signals the running review workflow of one document. Signals
// never start a workflow; the event handler does that when the object lands.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	if h.reviews == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document review is not enabled"})
		return
	}
	var req reviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	shipmentID := chi.URLParam(r, "shipmentId")
	slug := chi.URLParam(r, "documentSlug")
	if _, ok := domain.DocumentNameForSlug(slug); !ok {
		h.writeError(w, r, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, slug))
		return
	}
	if _, err := h.tracker.GetShipment(r.Context(), shipmentID); err != nil {
		h.writeError(w, r, err)
		return
	}

	err := h.reviews.SendDecision(r.Context(), shipmentID, slug, appTemporal.ReviewDecisionSignal{
		Decision: req.Decision,
		Reviewer: req.Reviewer,
		Reason:   req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"shipment_id": shipmentID,
		"document":    slug,
		"status":      "review_signal_sent",
	})
}

func (h *Handler) applyDocument(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id, name string) (domain.DocumentSlot, error)) {
	slug := chi.URLParam(r, "documentSlug")
	name, ok := domain.DocumentNameForSlug(slug)
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, slug))
		return
	}
	slot, err := apply(r.Context(), chi.URLParam(r, "shipmentId"), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	return n, nil
}
