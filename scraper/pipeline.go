// Package scraper drives one browser session through the search-and-scroll
// interaction and orchestrates extraction into a bounded result.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"
	"github.com/use-agent/leadscout/config"
	"github.com/use-agent/leadscout/models"
	"github.com/use-agent/leadscout/session"
)

// Session is the slice of a live browser session the pipeline needs.
// session.Manager's sessions satisfy it.
type Session interface {
	Page() *rod.Page
	Release()
}

// SessionSource acquires exclusively-owned browser sessions.
type SessionSource interface {
	Acquire(ctx context.Context) (Session, error)
}

// ManagerSource adapts a session.Manager to the SessionSource interface.
type ManagerSource struct {
	Manager *session.Manager
}

func (s ManagerSource) Acquire(ctx context.Context) (Session, error) {
	sess, err := s.Manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// InteractionDriver is the search/scroll/drill-down surface the pipeline
// sequences. Implemented by Driver; faked in tests.
type InteractionDriver interface {
	Search(ctx context.Context, sess Session, query string) error
	Paginate(ctx context.Context, sess Session, count int) int
	CollectListings(ctx context.Context, sess Session) ([]models.Lead, []models.StageDiagnostic)
}

// Pipeline sequences session acquisition, search, pagination, and
// extraction into one scrape invocation.
type Pipeline struct {
	sessions SessionSource
	driver   InteractionDriver
	cfg      config.ScraperConfig
}

// NewPipeline creates the extraction pipeline.
func NewPipeline(sessions SessionSource, driver InteractionDriver, cfg config.ScraperConfig) *Pipeline {
	return &Pipeline{sessions: sessions, driver: driver, cfg: cfg}
}

// Scrape runs one full extraction for the query.
//
// Only session acquisition surfaces as an error to the caller, since that
// is a fatal environment problem. Every stage failure after a session exists
// degrades to a (possibly empty) result with diagnostics instead: transient
// rendering failures are expected on this target, and "zero leads found"
// must not be conflated with a system fault. The session is released on
// every path, including cancellation, via the deferred Release.
func (p *Pipeline) Scrape(ctx context.Context, query string, maxResults int) (*models.ExtractionResult, error) {
	if maxResults <= 0 {
		maxResults = p.cfg.MaxResults
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.MaxTimeout)
	defer cancel()

	runID := uuid.NewString()
	start := time.Now()
	slog.Info("scrape starting", "run_id", runID, "query", query, "max_results", maxResults)

	sess, err := p.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	result := &models.ExtractionResult{Records: []models.Lead{}}

	if err := p.driver.Search(ctx, sess, query); err != nil {
		slog.Warn("search failed, returning empty result",
			"run_id", runID, "query", query, "error", err)
		result.Diagnostics = append(result.Diagnostics, diagnostic("search", err))
		return result, nil
	}

	completed := p.driver.Paginate(ctx, sess, p.cfg.ScrollCount)
	if completed < p.cfg.ScrollCount {
		result.Diagnostics = append(result.Diagnostics, models.StageDiagnostic{
			Stage:   "paginate",
			Code:    models.ErrCodePartialExtraction,
			Message: "pagination stopped early",
		})
	}

	leads, diags := p.driver.CollectListings(ctx, sess)
	result.Diagnostics = append(result.Diagnostics, diags...)

	result.RecordsFound = len(leads)
	if len(leads) > maxResults {
		leads = leads[:maxResults]
		result.Truncated = true
	}
	result.Records = leads

	slog.Info("scrape completed",
		"run_id", runID,
		"query", query,
		"records_found", result.RecordsFound,
		"returned", len(result.Records),
		"truncated", result.Truncated,
		"high_priority", result.HighPriorityCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// diagnostic converts a stage error into its diagnostic entry.
func diagnostic(stage string, err error) models.StageDiagnostic {
	code := models.ErrCodeInternal
	var se *models.ScrapeError
	if errors.As(err, &se) {
		code = se.Code
	}
	return models.StageDiagnostic{Stage: stage, Code: code, Message: err.Error()}
}
