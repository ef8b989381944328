package server

import (
	"encoding/json"
	"net/http"

	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/models"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("Error writing response: %v", err)
	}
}

// statusFor picks the HTTP status for a failed request. Malformed requests
// are always 422; other failures are 200 unless strict mode is on.
func (s *Server) statusFor(err error) int {
	kind := apperr.KindOf(err)
	if kind == apperr.InvalidRequest {
		return http.StatusUnprocessableEntity
	}
	if s.opts.StrictStatus {
		return apperr.HTTPStatus(kind)
	}
	return http.StatusOK
}

func (s *Server) writeDetectError(w http.ResponseWriter, err error) {
	writeJSON(w, s.statusFor(err), &models.DetectError{
		WasteType: "Error",
		Quantity:  0,
		Message:   err.Error(),
		ErrorKind: apperr.KindOf(err).String(),
	})
}

func (s *Server) writeStatusError(w http.ResponseWriter, err error) {
	writeJSON(w, s.statusFor(err), &models.StatusResponse{
		Status:    "error",
		Message:   err.Error(),
		ErrorKind: apperr.KindOf(err).String(),
	})
}
