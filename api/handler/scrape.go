package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/leadscout/cache"
	"github.com/use-agent/leadscout/config"
	"github.com/use-agent/leadscout/models"
	"github.com/use-agent/leadscout/store"
	"github.com/use-agent/leadscout/webhook"
)

// LeadScraper is the pipeline surface the handler drives. Satisfied by
// scraper.Pipeline.
type LeadScraper interface {
	Scrape(ctx context.Context, query string, maxResults int) (*models.ExtractionResult, error)
}

// ScrapeLeads returns a handler for POST /api/v1/scrape-leads.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup (opt-in via max_age).
//  3. Pipeline.Scrape → extraction result   (records scrape_ms)
//  4. Store.Append with provenance          (records store_ms)
//  5. Async webhook notification, respond with counts.
//
// A scrape that finds nothing responds 200 with zero counts: absence of
// data is not a fault in this domain. Only session setup and storage
// failures surface as errors.
func ScrapeLeads(sc LeadScraper, st store.Store, cc *cache.Cache, whCfg config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// Cache lookup. A hit skips both the browser and the store append:
		// the leads were already persisted when the entry was created, so
		// leads_added is 0 for this request and cache_status carries the
		// rest of the story.
		cacheKey := cache.Key(req.Query, req.MaxResults)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				c.JSON(http.StatusOK, models.ScrapeResponse{
					Success:      true,
					LeadsAdded:   0,
					HighPriority: cached.HighPriorityCount(),
					Truncated:    cached.Truncated,
					Diagnostics:  cached.Diagnostics,
					CacheStatus:  "hit",
					Timing: models.TimingInfo{
						TotalMs: time.Since(totalStart).Milliseconds(),
					},
				})
				return
			}
		}

		scrapeStart := time.Now()
		result, err := sc.Scrape(c.Request.Context(), req.Query, req.MaxResults)
		scrapeMs := time.Since(scrapeStart).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}

		storeStart := time.Now()
		added, err := st.Append(c.Request.Context(), result.Records, store.SourceMapSearch, req.Query)
		storeMs := time.Since(storeStart).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
				StoreMs:  storeMs,
			})
			return
		}

		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, result)
		}

		if whCfg.URL != "" {
			webhook.DeliverAsync(whCfg.URL, whCfg.Secret, &webhook.Event{
				Type:         "scrape.completed",
				Query:        req.Query,
				RecordsFound: result.RecordsFound,
				HighPriority: result.HighPriorityCount(),
				Truncated:    result.Truncated,
				Timestamp:    time.Now().Unix(),
			})
		}

		resp := models.ScrapeResponse{
			Success:      true,
			LeadsAdded:   added,
			HighPriority: result.HighPriorityCount(),
			Truncated:    result.Truncated,
			Diagnostics:  result.Diagnostics,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
				StoreMs:  storeMs,
			},
		}
		if cc != nil && req.MaxAge > 0 {
			resp.CacheStatus = "miss"
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeSessionSetup:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
