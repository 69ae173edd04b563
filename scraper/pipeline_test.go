package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/leadscout/config"
	"github.com/use-agent/leadscout/models"
)

type fakeSession struct {
	released int
}

func (f *fakeSession) Page() *rod.Page { return nil }
func (f *fakeSession) Release()        { f.released++ }

type fakeSource struct {
	sess *fakeSession
	err  error
}

func (f *fakeSource) Acquire(ctx context.Context) (Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

type fakeDriver struct {
	searchErr error
	scrolls   int
	leads     []models.Lead
	diags     []models.StageDiagnostic
}

func (f *fakeDriver) Search(ctx context.Context, sess Session, query string) error {
	return f.searchErr
}

func (f *fakeDriver) Paginate(ctx context.Context, sess Session, count int) int {
	if f.scrolls >= 0 && f.scrolls < count {
		return f.scrolls
	}
	return count
}

func (f *fakeDriver) CollectListings(ctx context.Context, sess Session) ([]models.Lead, []models.StageDiagnostic) {
	return f.leads, f.diags
}

func testConfig() config.ScraperConfig {
	return config.ScraperConfig{
		ScrollCount: 3,
		MaxResults:  20,
		MaxTimeout:  time.Minute,
	}
}

func namedLeads(n int) []models.Lead {
	leads := make([]models.Lead, n)
	for i := range leads {
		leads[i] = models.NewLead(fmt.Sprintf("biz-%02d", i), "", "", "", "", "", "")
	}
	return leads
}

func TestScrape_Truncation(t *testing.T) {
	sess := &fakeSession{}
	driver := &fakeDriver{scrolls: 3, leads: namedLeads(25)}
	p := NewPipeline(&fakeSource{sess: sess}, driver, testConfig())

	result, err := p.Scrape(context.Background(), "plumbers in Manchester", 20)
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if len(result.Records) != 20 {
		t.Errorf("got %d records, want exactly 20", len(result.Records))
	}
	if result.RecordsFound != 25 {
		t.Errorf("RecordsFound = %d, want 25", result.RecordsFound)
	}
	if !result.Truncated {
		t.Error("Truncated = false after a cap-exceeding extraction")
	}
	// Truncation must keep a prefix of extraction order.
	for i, rec := range result.Records {
		if want := fmt.Sprintf("biz-%02d", i); rec.Name != want {
			t.Fatalf("record %d = %q, want %q (order not preserved)", i, rec.Name, want)
		}
	}
	if sess.released != 1 {
		t.Errorf("session released %d times, want 1", sess.released)
	}
}

func TestScrape_UnderCap(t *testing.T) {
	p := NewPipeline(
		&fakeSource{sess: &fakeSession{}},
		&fakeDriver{scrolls: 3, leads: namedLeads(5)},
		testConfig(),
	)

	result, err := p.Scrape(context.Background(), "cafes", 20)
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if len(result.Records) != 5 || result.RecordsFound != 5 {
		t.Errorf("records=%d found=%d, want 5/5", len(result.Records), result.RecordsFound)
	}
	if result.Truncated {
		t.Error("Truncated = true for an under-cap result")
	}
}

func TestScrape_EmptyFeed(t *testing.T) {
	sess := &fakeSession{}
	p := NewPipeline(&fakeSource{sess: sess}, &fakeDriver{scrolls: 3}, testConfig())

	result, err := p.Scrape(context.Background(), "nothing here", 20)
	if err != nil {
		t.Fatalf("empty feed must not be an error, got: %v", err)
	}
	if len(result.Records) != 0 || result.RecordsFound != 0 || result.Truncated {
		t.Errorf("got %+v, want empty untruncated result", result)
	}
	if sess.released != 1 {
		t.Errorf("session released %d times, want 1", sess.released)
	}
}

func TestScrape_SessionSetupFailure(t *testing.T) {
	setupErr := models.NewScrapeError(
		models.ErrCodeSessionSetup, "binary absent", errors.New("no chrome"))
	p := NewPipeline(&fakeSource{err: setupErr}, &fakeDriver{}, testConfig())

	result, err := p.Scrape(context.Background(), "anything", 20)
	if err == nil {
		t.Fatal("acquisition failure must surface to the caller")
	}
	if result != nil {
		t.Errorf("result = %+v, want nil when acquisition fails", result)
	}
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeSessionSetup {
		t.Errorf("error = %v, want SESSION_SETUP ScrapeError", err)
	}
}

func TestScrape_SearchFailureDegradesToEmpty(t *testing.T) {
	sess := &fakeSession{}
	driver := &fakeDriver{
		searchErr: models.NewScrapeError(
			models.ErrCodeNavigationTimeout, "feed never appeared", nil),
		leads: namedLeads(10),
	}
	p := NewPipeline(&fakeSource{sess: sess}, driver, testConfig())

	result, err := p.Scrape(context.Background(), "anything", 20)
	if err != nil {
		t.Fatalf("search failure must not surface as an error, got: %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("got %d records after failed search, want 0", len(result.Records))
	}
	if len(result.Diagnostics) == 0 {
		t.Fatal("degraded result carries no diagnostics")
	}
	if result.Diagnostics[0].Stage != "search" || result.Diagnostics[0].Code != models.ErrCodeNavigationTimeout {
		t.Errorf("diagnostic = %+v, want search/NAVIGATION_TIMEOUT", result.Diagnostics[0])
	}
	if sess.released != 1 {
		t.Errorf("session released %d times on the failure path, want 1", sess.released)
	}
}

func TestScrape_ListingFailureIsolated(t *testing.T) {
	driver := &fakeDriver{
		scrolls: 3,
		leads:   namedLeads(9),
		diags: []models.StageDiagnostic{{
			Stage:   "extract",
			Code:    models.ErrCodePartialExtraction,
			Message: "detail panel never loaded",
		}},
	}
	p := NewPipeline(&fakeSource{sess: &fakeSession{}}, driver, testConfig())

	result, err := p.Scrape(context.Background(), "10 listings, 1 broken", 20)
	if err != nil {
		t.Fatalf("one broken listing must not fail the scrape: %v", err)
	}
	if len(result.Records) != 9 {
		t.Errorf("got %d records, want the 9 surviving listings", len(result.Records))
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Code != models.ErrCodePartialExtraction {
		t.Errorf("diagnostics = %+v, want one PARTIAL_EXTRACTION entry", result.Diagnostics)
	}
}

func TestScrape_PartialPaginationRecorded(t *testing.T) {
	driver := &fakeDriver{scrolls: 1, leads: namedLeads(2)}
	p := NewPipeline(&fakeSource{sess: &fakeSession{}}, driver, testConfig())

	result, err := p.Scrape(context.Background(), "slow feed", 20)
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	found := false
	for _, d := range result.Diagnostics {
		if d.Stage == "paginate" {
			found = true
		}
	}
	if !found {
		t.Error("early-stopped pagination left no diagnostic")
	}
	if len(result.Records) != 2 {
		t.Errorf("partial pagination must still return records, got %d", len(result.Records))
	}
}

func TestScrape_DefaultCap(t *testing.T) {
	driver := &fakeDriver{scrolls: 3, leads: namedLeads(30)}
	p := NewPipeline(&fakeSource{sess: &fakeSession{}}, driver, testConfig())

	result, err := p.Scrape(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if len(result.Records) != 20 {
		t.Errorf("got %d records with cap unset, want configured default 20", len(result.Records))
	}
	if !result.Truncated {
		t.Error("Truncated = false after default-cap truncation")
	}
}
