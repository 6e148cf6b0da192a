package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/noahxzhu/interval-alert/internal/alert"
	"github.com/noahxzhu/interval-alert/internal/model"
)

// SetAlertRequest mirrors the form: the interval is the raw text the user
// typed, validated server-side.
type SetAlertRequest struct {
	Interval string `json:"interval"`
	Message  string `json:"message"`
}

type AlertResponse struct {
	Confirmation string              `json:"confirmation,omitempty"`
	Alert        *model.Registration `json:"alert"`
}

type apiError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleAPIAlert(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.alertResponse(""))

	case http.MethodPost:
		var req SetAlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body: " + err.Error()})
			return
		}

		confirmation, err := s.alerts.Submit(r.Context(), req.Interval, req.Message)
		if err != nil {
			resp := apiError{Error: err.Error()}
			var ve *alert.ValidationError
			if errors.As(err, &ve) {
				resp.Field = ve.Field
			}
			writeJSON(w, submitStatus(err), resp)
			return
		}
		writeJSON(w, http.StatusOK, s.alertResponse(confirmation))

	case http.MethodDelete:
		if err := s.alerts.Cancel(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	}
}

func (s *Server) alertResponse(confirmation string) AlertResponse {
	resp := AlertResponse{Confirmation: confirmation}
	if reg, ok := s.alerts.Status(); ok {
		resp.Alert = &reg
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
