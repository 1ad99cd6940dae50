package utils

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines and spaces their
// start times by at least the configured rate limit.
type WorkerPool struct {
	semaphore   chan struct{}
	rateLimit   time.Duration
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		rateLimit: time.Duration(rateLimitMs) * time.Millisecond,
	}
}

// Submit enqueues a job, blocking while every worker slot is busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.SubmitContext(context.Background(), func(context.Context) { job() })
}

// SubmitContext enqueues a job that receives ctx. Jobs whose context is
// already done by the time a slot and rate-limit window open are skipped.
func (wp *WorkerPool) SubmitContext(ctx context.Context, job func(ctx context.Context)) {
	wp.wg.Add(1)
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		wp.wg.Done()
		return
	}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		if ctx.Err() != nil {
			return
		}
		job(ctx)
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.lastRequest.IsZero() {
		if elapsed := time.Since(wp.lastRequest); elapsed < wp.rateLimit {
			time.Sleep(wp.rateLimit - elapsed)
		}
	}
	wp.lastRequest = time.Now()
}

// URLSet is a thread-safe set of listing links. Links are compared without
// their query string, fragment or trailing slash, so tracking parameters on
// the same listing collapse to one entry.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the link was newly added, false if already present.
func (s *URLSet) Add(link string) bool {
	key := canonicalURL(link)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether the link has already been added.
func (s *URLSet) Contains(link string) bool {
	key := canonicalURL(link)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique links tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

func canonicalURL(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.TrimRight(link, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
