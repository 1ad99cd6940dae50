package trademe

import (
	"context"
	"fmt"

	apperrors "rental-search/errors"
	"rental-search/models"
	"rental-search/session"
)

// Source exposes the Fetcher as a listing source, reading the access token
// of the session carried in ctx.
type Source struct {
	fetcher *Fetcher
	store   session.Store
}

// NewSource creates a session-aware API source.
func NewSource(fetcher *Fetcher, store session.Store) *Source {
	return &Source{fetcher: fetcher, store: store}
}

func (s *Source) Name() string { return SourceName }

func (s *Source) Search(ctx context.Context, c models.SearchCriteria) ([]models.Listing, error) {
	creds, err := s.store.Load(ctx, session.FromContext(ctx))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("load session: %w", err))
	}
	return s.fetcher.Search(ctx, c, creds.AccessToken)
}
