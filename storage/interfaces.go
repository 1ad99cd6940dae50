package storage

import (
	"context"

	"rental-search/models"
)

// ListingWriter is the interface any storage backend must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []models.Listing) error
	Close() error
}
