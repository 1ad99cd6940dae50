package handlers

import (
	"context"
	"net/http"

	"rental-search/session"
	"rental-search/utils"
)

// Authenticator runs the provider handshake for a session.
type Authenticator interface {
	Initiate(ctx context.Context, sessionID string) (string, error)
	Complete(ctx context.Context, sessionID, oauthToken, verifier string) (string, error)
	Check(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	auth   Authenticator
	logger *utils.Logger
}

func NewAuthHandler(auth Authenticator, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Start handles GET /auth/start by redirecting to the provider.
func (h *AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	target, err := h.auth.Initiate(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback handles GET /auth/callback, the provider's return leg.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := h.auth.Complete(r.Context(), session.FromContext(r.Context()),
		q.Get("oauth_token"), q.Get("oauth_verifier"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Status handles GET /auth/status.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	ok, err := h.auth.Check(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": ok})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Revoke(r.Context(), session.FromContext(r.Context())); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
