package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/leadscout/extract"
	"github.com/use-agent/leadscout/models"
)

// CollectListings drives the per-listing detail-panel drill-down: it
// enumerates the place anchors loaded into the feed, and for each one
// clicks it, waits for the detail panel's signature element, snapshots the
// rendered markup, and extracts a record from the snapshot.
//
// Per-item isolation is the contract here: a listing whose panel fails to
// open or parse is logged, recorded in the diagnostics, and skipped; it
// never aborts the remaining listings.
func (d *Driver) CollectListings(ctx context.Context, sess Session) ([]models.Lead, []models.StageDiagnostic) {
	page := sess.Page().Context(ctx)

	anchors, err := page.Elements(placeAnchorSelector)
	if err != nil || len(anchors) == 0 {
		// No anchors can still mean feed rows render without place links;
		// fall back to a single-snapshot structural extraction.
		return d.collectFromSnapshot(page)
	}

	// Record each anchor's href up front. Scrolling mutates the feed DOM,
	// so a handle can go stale between enumeration and click; the href lets
	// us re-resolve the intended listing instead of silently clicking
	// whatever the first structural match happens to be.
	hrefs := make([]string, len(anchors))
	for i, a := range anchors {
		if href, err := a.Attribute("href"); err == nil && href != nil {
			hrefs[i] = *href
		}
	}

	var (
		leads []models.Lead
		diags []models.StageDiagnostic
	)
	for i, anchor := range anchors {
		if ctx.Err() != nil {
			slog.Info("drill-down canceled", "extracted", len(leads))
			break
		}

		lead, err := d.drillDown(ctx, page, anchor, hrefs[i])
		if err != nil {
			slog.Warn("listing drill-down failed, skipping",
				"index", i, "error", err)
			diags = append(diags, models.StageDiagnostic{
				Stage:   "extract",
				Code:    models.ErrCodePartialExtraction,
				Message: err.Error(),
			})
			continue
		}
		leads = append(leads, lead)
	}
	return leads, diags
}

// drillDown opens one listing's detail panel and extracts its record.
func (d *Driver) drillDown(ctx context.Context, page *rod.Page, anchor *rod.Element, href string) (models.Lead, error) {
	var zero models.Lead

	if err := anchor.Click(proto.InputMouseButtonLeft, 1); err != nil {
		// The handle likely went stale after a feed mutation; re-resolve
		// the same listing by its href.
		fresh, ferr := d.resolveByHref(ctx, page, href)
		if ferr != nil {
			return zero, models.NewScrapeError(
				models.ErrCodePartialExtraction,
				"listing anchor unclickable",
				err,
			)
		}
		if err := fresh.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return zero, models.NewScrapeError(
				models.ErrCodePartialExtraction,
				"listing anchor unclickable after re-resolve",
				err,
			)
		}
	}

	if err := jitterSleep(ctx, d.cfg.PreWaitMin, d.cfg.PreWaitMax); err != nil {
		return zero, err
	}
	if _, err := d.waitElement(ctx, page, detailReadySelector); err != nil {
		return zero, err
	}

	markup, err := page.HTML()
	if err != nil {
		return zero, models.NewScrapeError(
			models.ErrCodePartialExtraction,
			"failed to snapshot detail panel",
			err,
		)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return zero, models.NewScrapeError(
			models.ErrCodePartialExtraction,
			"failed to parse detail panel markup",
			err,
		)
	}
	return extract.ExtractRecord(doc.Selection), nil
}

// resolveByHref re-queries the feed for the anchor with the given href.
// The lookup goes through waitElement so it carries the same per-check
// timeout as every other presence wait: a listing the feed has virtualized
// out of the DOM costs one bounded wait and a skip, never the remaining
// scrape budget.
func (d *Driver) resolveByHref(ctx context.Context, page *rod.Page, href string) (*rod.Element, error) {
	if href == "" {
		return nil, models.NewScrapeError(
			models.ErrCodeElementNotFound, "listing href unknown", nil)
	}
	return d.waitElement(ctx, page, `a[href="`+escapeAttrValue(href)+`"]`)
}

var attrValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escapeAttrValue escapes a value for embedding inside a double-quoted CSS
// attribute selector. Map place hrefs routinely carry characters that are
// selector metacharacters when interpolated raw.
func escapeAttrValue(v string) string {
	return attrValueEscaper.Replace(v)
}

// collectFromSnapshot extracts what it can from a single feed snapshot when
// no place anchors are clickable. Feed rows carry far fewer fields than the
// detail panel (usually an aria-label name at best), but a degraded record
// still tells downstream a listing exists.
func (d *Driver) collectFromSnapshot(page *rod.Page) ([]models.Lead, []models.StageDiagnostic) {
	markup, err := page.HTML()
	if err != nil {
		return nil, []models.StageDiagnostic{{
			Stage:   "extract",
			Code:    models.ErrCodePartialExtraction,
			Message: "failed to snapshot results feed: " + err.Error(),
		}}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, []models.StageDiagnostic{{
			Stage:   "extract",
			Code:    models.ErrCodePartialExtraction,
			Message: "failed to parse results feed: " + err.Error(),
		}}
	}

	var leads []models.Lead
	for _, node := range extract.ListListings(doc) {
		name, _ := node.Attr("aria-label")
		leads = append(leads, models.NewLead(name, "", "", "", "", "", ""))
	}
	return leads, nil
}
