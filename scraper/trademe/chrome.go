package trademe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"rental-search/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ChromeLauncher starts headless Chrome sessions through chromedp.
type ChromeLauncher struct {
	chromeBin string
	logger    *utils.Logger
}

// NewChromeLauncher creates a launcher. An empty chromeBin is resolved from
// CHROME_BIN, PATH and the usual install locations.
func NewChromeLauncher(chromeBin string, logger *utils.Logger) *ChromeLauncher {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &ChromeLauncher{chromeBin: chromeBin, logger: logger}
}

func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if l.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(l.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser %q: %w", l.chromeBin, err)
	}
	l.logger.Debug("[scraper] Browser started (%s)", l.chromeBin)

	return &chromeSession{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		pending:       make(map[network.RequestID]CapturedResponse),
	}, nil
}

type chromeSession struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	mu       sync.Mutex
	pending  map[network.RequestID]CapturedResponse
	captured []CapturedResponse

	closeOnce sync.Once
	closeErr  error
}

// run executes actions on the tab while honouring the caller's ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) InterceptResponses(match func(url, contentType string) bool) error {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if e.Response == nil || !match(e.Response.URL, e.Response.MimeType) {
				return
			}
			s.mu.Lock()
			s.pending[e.RequestID] = CapturedResponse{URL: e.Response.URL, ContentType: e.Response.MimeType}
			s.mu.Unlock()

		case *network.EventLoadingFinished:
			s.mu.Lock()
			resp, ok := s.pending[e.RequestID]
			delete(s.pending, e.RequestID)
			s.mu.Unlock()
			if !ok {
				return
			}
			// Listener callbacks must not block, so the body is fetched
			// on its own goroutine.
			go s.fetchBody(e.RequestID, resp)
		}
	})
	return chromedp.Run(s.ctx, network.Enable())
}

func (s *chromeSession) fetchBody(id network.RequestID, resp CapturedResponse) {
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return
	}
	body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(s.ctx, c.Target))
	if err != nil {
		return
	}
	resp.Body = body

	s.mu.Lock()
	s.captured = append(s.captured, resp)
	s.mu.Unlock()
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) error {
	if len(selectors) == 0 {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found := make(chan struct{}, len(selectors))
	failed := make(chan struct{}, len(selectors))
	for _, sel := range selectors {
		go func(sel string) {
			if err := s.run(wctx, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
				failed <- struct{}{}
				return
			}
			found <- struct{}{}
		}(sel)
	}

	for range selectors {
		select {
		case <-found:
			return nil
		case <-failed:
		}
	}
	return fmt.Errorf("none of %d selectors became visible within %v", len(selectors), timeout)
}

func (s *chromeSession) Captured() []CapturedResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedResponse, len(s.captured))
	copy(out, s.captured)
	return out
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelBrowser()
		s.cancelAlloc()
	})
	return s.closeErr
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
