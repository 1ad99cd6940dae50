package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "rental-search/errors"
	"rental-search/httpclient"
	"rental-search/models"
	"rental-search/session"
	"rental-search/utils"
)

// Endpoints are the provider URLs used by the three legs of the handshake.
type Endpoints struct {
	RequestToken string
	Authorize    string
	AccessToken  string
}

// ProviderEndpoints derives the handshake URLs from the provider's secure host.
func ProviderEndpoints(oauthBaseURL string) Endpoints {
	base := strings.TrimRight(oauthBaseURL, "/")
	return Endpoints{
		RequestToken: base + "/Oauth/RequestToken",
		Authorize:    base + "/Oauth/Authorize",
		AccessToken:  base + "/Oauth/AccessToken",
	}
}

// HandshakeConfig wires a Handshake.
type HandshakeConfig struct {
	Endpoints       Endpoints
	CallbackURL     string
	SuccessURL      string
	RequestTokenTTL time.Duration
	AccessTokenTTL  time.Duration
}

// Handshake drives a session through Unauthenticated, PendingAuthorization
// and Authenticated. The stored credentials are the only state.
type Handshake struct {
	signer *Signer
	client httpclient.Doer
	store  session.Store
	cfg    HandshakeConfig
	logger *utils.Logger
}

// NewHandshake creates a Handshake.
func NewHandshake(signer *Signer, client httpclient.Doer, store session.Store, cfg HandshakeConfig, logger *utils.Logger) *Handshake {
	return &Handshake{signer: signer, client: client, store: store, cfg: cfg, logger: logger}
}

// Initiate obtains a request token, stores its secret for the session and
// returns the provider authorization URL the user must be redirected to.
// A second Initiate before Complete replaces the pending secret.
func (h *Handshake) Initiate(ctx context.Context, sessionID string) (string, error) {
	h.logger.Info("[oauth] Starting handshake, callback %s", h.cfg.CallbackURL)

	header, err := h.signer.AuthorizationHeader(http.MethodPost, h.cfg.Endpoints.RequestToken, MethodPlaintext,
		Params{Callback: h.cfg.CallbackURL}, "")
	if err != nil {
		return "", apperrors.Internal(err)
	}

	tok, err := h.exchange(ctx, "request token", h.cfg.Endpoints.RequestToken, header)
	if err != nil {
		return "", err
	}
	h.logger.Info("[oauth] Received request token %s", utils.Redact(tok.Token))

	if err := h.store.PutRequestSecret(ctx, sessionID, tok.TokenSecret, h.cfg.RequestTokenTTL); err != nil {
		return "", apperrors.Internal(fmt.Errorf("store request secret: %w", err))
	}

	return h.cfg.Endpoints.Authorize + "?oauth_token=" + url.QueryEscape(tok.Token), nil
}

// Complete exchanges the callback's token and verifier for an access token.
// It fails with a missing-credentials error before any network call when
// the session has no pending request secret.
func (h *Handshake) Complete(ctx context.Context, sessionID, oauthToken, verifier string) (string, error) {
	creds, err := h.store.Load(ctx, sessionID)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("load session: %w", err))
	}
	if creds.RequestTokenSecret == "" {
		h.logger.Warn("[oauth] Callback without a pending request secret (expired or cross-device)")
		return "", apperrors.MissingCredentials("no pending authorization for this session, start again at /auth/start")
	}
	if oauthToken == "" || verifier == "" {
		return "", apperrors.MissingCredentials("callback is missing oauth_token or oauth_verifier")
	}
	h.logger.Info("[oauth] Callback received token %s verifier %s", utils.Redact(oauthToken), utils.Redact(verifier))

	header, err := h.signer.AuthorizationHeader(http.MethodPost, h.cfg.Endpoints.AccessToken, MethodPlaintext,
		Params{Token: oauthToken, Verifier: verifier}, creds.RequestTokenSecret)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	tok, err := h.exchange(ctx, "access token", h.cfg.Endpoints.AccessToken, header)
	if err != nil {
		return "", err
	}

	access := models.AccessToken{Token: tok.Token, TokenSecret: tok.TokenSecret}
	if err := h.store.PutAccessToken(ctx, sessionID, access, h.cfg.AccessTokenTTL); err != nil {
		return "", apperrors.Internal(fmt.Errorf("store access token: %w", err))
	}
	if err := h.store.DeleteRequestSecret(ctx, sessionID); err != nil {
		h.logger.Warn("[oauth] Could not delete used request secret: %v", err)
	}
	h.logger.Info("[oauth] Handshake complete, access token %s", utils.Redact(access.Token))

	return h.cfg.SuccessURL, nil
}

// Check reports whether the session holds a complete access token pair.
func (h *Handshake) Check(ctx context.Context, sessionID string) (bool, error) {
	creds, err := h.store.Load(ctx, sessionID)
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("load session: %w", err))
	}
	return creds.AccessToken.Valid(), nil
}

// Revoke forgets every credential held for the session.
func (h *Handshake) Revoke(ctx context.Context, sessionID string) error {
	if err := h.store.DeleteAccessToken(ctx, sessionID); err != nil {
		return apperrors.Internal(fmt.Errorf("delete access token: %w", err))
	}
	if err := h.store.DeleteRequestSecret(ctx, sessionID); err != nil {
		return apperrors.Internal(fmt.Errorf("delete request secret: %w", err))
	}
	return nil
}

// exchange POSTs a signed, empty-bodied token request and parses the
// url-encoded token pair out of the response.
func (h *Handshake) exchange(ctx context.Context, op, endpoint, header string) (*models.RequestToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("build %s request: %w", op, err))
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(ctx, req)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			h.logger.Error("[oauth] %s endpoint returned %d: %s", op, statusErr.StatusCode, statusErr.Body)
			return nil, apperrors.UpstreamRequest(op, statusErr.StatusCode, err)
		}
		h.logger.Error("[oauth] %s request failed: %v", op, err)
		return nil, apperrors.UpstreamRequest(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, apperrors.UpstreamRequest(op, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Error("[oauth] %s endpoint returned %d: %s", op, resp.StatusCode, string(body))
		return nil, apperrors.UpstreamRequest(op, resp.StatusCode, nil)
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, apperrors.UpstreamRequest(op, resp.StatusCode, fmt.Errorf("parse body: %w", err))
	}
	tok := &models.RequestToken{
		Token:       values.Get("oauth_token"),
		TokenSecret: values.Get("oauth_token_secret"),
	}
	if tok.Token == "" || tok.TokenSecret == "" {
		return nil, apperrors.UpstreamRequest(op, resp.StatusCode, errors.New("response missing oauth_token or oauth_token_secret"))
	}
	return tok, nil
}
