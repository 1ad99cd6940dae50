package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	apperrors "rental-search/errors"
	"rental-search/utils"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	AuthURL   string `json:"auth_url,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError converts err into the error envelope. Errors outside the
// application taxonomy are logged and reported as internal.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *utils.Logger) {
	body := ErrorBody{RequestID: chimw.GetReqID(r.Context())}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}
	body.Code = appErr.Code
	body.Message = appErr.Message
	body.AuthURL = appErr.AuthURL

	status := appErr.Status
	if status == 0 {
		status = apperrors.HTTPStatus(err)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("[http] %s %s: %v", r.Method, r.URL.Path, err)
	}

	WriteJSON(w, status, errorEnvelope{Error: body})
}
