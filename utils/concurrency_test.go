package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	assert.True(t, s.Add("https://www.tmsandbox.co.nz/a/property/residential/rent/listing/1"))
	assert.False(t, s.Add("https://www.tmsandbox.co.nz/a/property/residential/rent/listing/1"))
	assert.Equal(t, 1, s.Size())
}

func TestURLSetIgnoresTrackingParams(t *testing.T) {
	s := NewURLSet()

	assert.True(t, s.Add("https://WWW.tmsandbox.co.nz/listing/42?rsqid=abc"))
	assert.False(t, s.Add("https://www.tmsandbox.co.nz/listing/42/"))
	assert.True(t, s.Contains("https://www.tmsandbox.co.nz/listing/42#photos"))
	assert.False(t, s.Contains("https://www.tmsandbox.co.nz/listing/43"))
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("https://example.com/same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	assert.Equal(t, int64(1), added)
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	min := time.Duration(rateLimitMs) * time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		assert.GreaterOrEqual(t, gap, min, "gap between job %d and %d", i-1, i)
	}
}

func TestWorkerPoolSkipsCancelledJobs(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int64
	for i := 0; i < 5; i++ {
		pool.SubmitContext(ctx, func(context.Context) {
			atomic.AddInt64(&ran, 1)
		})
	}
	pool.Wait()

	assert.Equal(t, int64(0), ran)
}
