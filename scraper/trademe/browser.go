package trademe

import (
	"context"
	"time"
)

// CapturedResponse is a network response body recorded while a page loaded.
type CapturedResponse struct {
	URL         string
	ContentType string
	Body        []byte
}

// Session is one browser tab. Close must be called on every path once
// Launch succeeds; an unclosed session leaks a browser process.
type Session interface {
	// InterceptResponses starts recording bodies of responses for which
	// match returns true. Call before Navigate.
	InterceptResponses(match func(url, contentType string) bool) error
	Navigate(ctx context.Context, url string) error
	// WaitForAny returns nil as soon as one selector is visible, or an error
	// when none appear within timeout.
	WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) error
	Captured() []CapturedResponse
	// HTML returns the rendered document for DOM extraction.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
