package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"customs-clearance/internal/domain"
	appTemporal "customs-clearance/internal/temporal"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps an error kind onto the response status. An unknown document
// name is a 400, an unknown shipment a 404, everything else a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrNotUploaded),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrShipmentNotFound),
		errors.Is(err, appTemporal.ErrReviewNotRunning):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrReferenceGeneration):
		msg = "failed to generate reference number, try again"
	case errors.Is(err, domain.ErrStorage):
		msg = "failed to store document"
	case status == http.StatusInternalServerError:
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeBadRequest(w, "invalid json")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeBadRequest(w, describeValidation(err))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	msg := "validation failed:"
	for i, fe := range fieldErrs {
		if i > 0 {
			msg += ","
		}
		msg += " " + fe.Namespace() + " " + fe.Tag()
	}
	return msg
}
