// Package session owns the lifetime of one headless-browser automation
// context: launch, configuration, and guaranteed teardown. One Session per
// scrape invocation, never pooled: a browser session is stateful, and
// sharing one across runs leaks cross-run state.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/leadscout/config"
	"github.com/use-agent/leadscout/models"
	"github.com/ysmood/gson"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateCreated State = iota
	StateReady
	StateClosed
)

// Session is an exclusively-owned live browser session. It is not safe for
// concurrent use; one goroutine drives it from Acquire to Release.
type Session struct {
	page    *rod.Page
	browser *rod.Browser
	lc      *launcher.Launcher

	state     State
	releaseFn sync.Once
}

// Manager acquires and releases browser sessions.
type Manager struct {
	cfg config.BrowserConfig
}

// NewManager creates a session manager. It performs no work until Acquire;
// a compatible browser binary is a precondition checked per acquisition.
func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Acquire launches a fresh browser process and returns a ready Session.
// Any launch or connect failure (binary missing, version mismatch, port
// bind) is returned as a SESSION_SETUP error; retrying is the caller's
// policy, not this layer's. Every successful Acquire must be paired with
// exactly one Release.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	l := launcher.New().
		Headless(m.cfg.Headless).
		NoSandbox(m.cfg.NoSandbox)

	if m.cfg.BrowserBin != "" {
		l = l.Bin(m.cfg.BrowserBin)
	}

	// Flags that suppress the more obvious automation tells and the
	// crash-prone defaults in containers.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", m.cfg.WindowW, m.cfg.WindowH))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeSessionSetup,
			"failed to launch browser",
			err,
		)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeSessionSetup,
			"failed to connect to browser",
			err,
		)
	}

	s := &Session{browser: browser, lc: l, state: StateCreated}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Release()
		return nil, models.NewScrapeError(
			models.ErrCodeSessionSetup,
			"failed to open page",
			err,
		)
	}
	s.page = page.Context(ctx)

	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: m.cfg.UserAgent,
	}); err != nil {
		s.Release()
		return nil, models.NewScrapeError(
			models.ErrCodeSessionSetup,
			"failed to set user agent",
			err,
		)
	}

	// An empty Accept-Language is a headless tell; pin it to match the UA.
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Accept-Language": gson.New("en-US,en;q=0.9"),
		},
	}.Call(s.page)

	// Stealth JS must be installed before any navigation to take effect.
	if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", err,
		)
	}

	s.state = StateReady
	slog.Info("browser session acquired", "controlURL", controlURL)
	return s, nil
}

// Page returns the session's single page, already bound to the acquiring
// context.
func (s *Session) Page() *rod.Page {
	return s.page
}

// State reports the session's lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Release terminates the browser session and its OS process. Idempotent:
// repeated calls are no-ops. This must run on every path out of a scrape,
// so callers defer it immediately after a successful Acquire; an orphaned
// headless browser is the expensive failure mode here.
func (s *Session) Release() {
	s.releaseFn.Do(func() {
		if s.page != nil {
			_ = s.page.Close()
		}
		if err := s.browser.Close(); err != nil {
			slog.Warn("browser close failed, killing process", "error", err)
		}
		// Kill is a no-op if the process already exited; Cleanup removes
		// the temporary user-data dir.
		s.lc.Kill()
		s.lc.Cleanup()
		s.state = StateClosed
		slog.Info("browser session released")
	})
}
