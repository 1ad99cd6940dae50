// Package session keeps OAuth credentials per browser session. A session is
// identified by an opaque cookie value; the secrets themselves never leave
// the server.
package session

import (
	"context"
	"time"

	"rental-search/models"
)

// Store holds the pending request-token secret and the access-token pair for
// each session. Expired entries read as absent.
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.Credentials, error)
	PutRequestSecret(ctx context.Context, sessionID, secret string, ttl time.Duration) error
	DeleteRequestSecret(ctx context.Context, sessionID string) error
	PutAccessToken(ctx context.Context, sessionID string, token models.AccessToken, ttl time.Duration) error
	DeleteAccessToken(ctx context.Context, sessionID string) error
}
