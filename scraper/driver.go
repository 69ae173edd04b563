package scraper

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/use-agent/leadscout/config"
	"github.com/use-agent/leadscout/models"
)

// Selectors the interaction depends on. The search box id and the feed role
// are the two most stable hooks the target exposes; everything class-based
// lives in the extract package's strategy tables instead.
const (
	searchBoxSelector   = `#searchboxinput`
	resultsFeedSelector = `div[role="feed"]`
	detailReadySelector = `div.fontHeadlineSmall`
	placeAnchorSelector = `a[href*="/maps/place/"]`
)

// Driver issues the search action and the scroll-based pagination loop
// against a live session.
type Driver struct {
	cfg config.ScraperConfig
}

// NewDriver creates an interaction driver.
func NewDriver(cfg config.ScraperConfig) *Driver {
	return &Driver{cfg: cfg}
}

// Search navigates the session to the entry point, waits for the search
// input, submits the query, and waits for the results feed. Each wait is
// independently bounded by the configured timeout; waits are CDP
// event-driven, never tight polling. Jittered pre-waits blunt the most
// obvious automation timing fingerprint.
func (d *Driver) Search(ctx context.Context, sess Session, query string) error {
	page := sess.Page().Context(ctx)

	if err := page.Navigate(d.cfg.EntryURL); err != nil {
		return categorizeError(err, "navigation to entry point failed")
	}

	if err := jitterSleep(ctx, d.cfg.PreWaitMin, d.cfg.PreWaitMax); err != nil {
		return categorizeError(err, "canceled before search")
	}

	box, err := d.waitElement(ctx, page, searchBoxSelector)
	if err != nil {
		return err
	}

	// Select-all then type replaces any text a previous navigation left in
	// the box.
	_ = box.SelectAllText()
	if err := box.Input(query); err != nil {
		return categorizeError(err, "failed to type query")
	}
	if err := page.Keyboard.Press(input.Enter); err != nil {
		return categorizeError(err, "failed to submit query")
	}
	slog.Info("search submitted", "query", query)

	if err := jitterSleep(ctx, d.cfg.PreWaitMin, d.cfg.PreWaitMax); err != nil {
		return categorizeError(err, "canceled waiting for results")
	}

	if _, err := d.waitElement(ctx, page, resultsFeedSelector); err != nil {
		return err
	}
	return nil
}

// Paginate scrolls the results feed to its current bottom extent count
// times, pausing a jittered delay between iterations so asynchronous
// content can load. A failed scroll logs and stops early; the partial count
// is returned rather than failing the run; degraded pagination beats an
// aborted extraction.
func (d *Driver) Paginate(ctx context.Context, sess Session, count int) int {
	page := sess.Page().Context(ctx)

	feed, err := d.waitElement(ctx, page, resultsFeedSelector)
	if err != nil {
		slog.Warn("results feed not found, skipping pagination", "error", err)
		return 0
	}

	completed := 0
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			slog.Info("pagination canceled", "completed", completed)
			return completed
		}

		_, err := feed.Eval(`() => { this.scrollTop = this.scrollHeight }`)
		if err != nil {
			slog.Warn("scroll iteration failed, stopping pagination",
				"iteration", i+1, "completed", completed, "error", err)
			return completed
		}
		completed++
		slog.Debug("scrolled results feed", "iteration", completed, "of", count)

		if err := jitterSleep(ctx, d.cfg.ScrollWaitMin, d.cfg.ScrollWaitMax); err != nil {
			return completed
		}
	}
	return completed
}

// waitElement waits for a selector to be present, bounded by the configured
// wait timeout. Timeout maps to NAVIGATION_TIMEOUT; anything else to
// ELEMENT_NOT_FOUND.
func (d *Driver) waitElement(ctx context.Context, page *rod.Page, selector string) (*rod.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d.cfg.WaitTimeout)
	defer cancel()

	el, err := page.Context(waitCtx).Element(selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, models.NewScrapeError(
				models.ErrCodeNavigationTimeout,
				"timed out waiting for "+selector,
				err,
			)
		}
		return nil, models.NewScrapeError(
			models.ErrCodeElementNotFound,
			"element not present: "+selector,
			err,
		)
	}
	// The wait context dies with this call; hand back an element bound to
	// the caller's context so later interaction with it still works.
	return el.Context(ctx), nil
}

// jitterSleep sleeps a uniformly random duration in [min, max], honoring
// cancellation.
func jitterSleep(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// categorizeError wraps raw driver errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeNavigationTimeout, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeElementNotFound, msg, err)
	}
}
