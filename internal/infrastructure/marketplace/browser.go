package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

const defaultNavTimeout = 45 * time.Second

// BrowserSession owns a shared Chrome allocator that the browser-driven
// adapters (Vinted, Depop, Facebook) create tab contexts from. One
// allocator per process keeps memory bounded; each adapter call runs in
// its own tab and closes it when done.
type BrowserSession struct {
	cfg         config.BrowserConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewBrowserSession creates the shared Chrome allocator
func NewBrowserSession(cfg config.BrowserConfig, logger *zap.Logger) *BrowserSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = defaultNavTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.UserDataDir != "" {
		// A persistent profile keeps platform logins across restarts
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserSession{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// Run executes the actions in a fresh tab under the navigation timeout.
// Deadline overruns surface as ErrAdapterTimeout.
func (s *BrowserSession) Run(ctx context.Context, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(tabCtx, actions...)
	}()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %v", integration.ErrAdapterTimeout, err)
			}
			return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
		}
		return nil
	case <-ctx.Done():
		tabCancel()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: navigation exceeded %v", integration.ErrAdapterTimeout, s.cfg.NavTimeout)
		}
		return ctx.Err()
	}
}

// SetSessionCookie installs a pre-captured session cookie for a platform
// domain, so adapters can skip the interactive login flow.
func SetSessionCookie(name, value, domain string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(name, value).
			WithDomain(domain).
			WithPath("/").
			WithHTTPOnly(true).
			WithSecure(true).
			Do(ctx)
	})
}

// Close releases the Chrome allocator
func (s *BrowserSession) Close() {
	s.allocCancel()
}
