// Package extract locates listing nodes in rendered map-search markup and
// derives one normalized lead per node. The markup is adversarial: class
// names are non-semantic and change across front-end releases, so every
// lookup is a ranked strategy table, and attribute-keyed selectors
// (data-item-id) are preferred over class-based ones wherever the target
// exposes them.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/leadscout/models"
	"golang.org/x/net/html"
)

var (
	// Listing discovery. The class marker is the fast path; the feed
	// container is the structural fallback when the marker class rotates.
	listingMarker = sel(`.hfpxzc`)
	resultsFeed   = sel(`div[role="feed"]`)

	// Detail-panel field locators, ranked. data-item-id keyed lookups are
	// materially more stable across redesigns than the class-based ones,
	// which exist only because the name/category/rating nodes carry no
	// structured attributes at all.
	nameStrategies = []Strategy{
		text("headline-class", sel(`h1.fontHeadlineLarge`)),
		text("any-heading", sel(`h1`)),
	}
	categoryStrategies = []Strategy{
		text("category-class", sel(`button.hH0iDf`)),
		text("category-jsaction", sel(`button[jsaction*="category"]`)),
	}
	ratingBlobStrategies = []Strategy{
		text("body-medium-f5", sel(`div.fontBodyMedium.f5`)),
		text("body-medium", sel(`div.fontBodyMedium`)),
	}
	addressStrategies = []Strategy{
		text("item-id-address", sel(`button[data-item-id="address"]`)),
	}
	phoneStrategies = []Strategy{
		text("item-id-phone", sel(`button[data-item-id="phone"]`)),
		text("item-id-phone-tel", sel(`button[data-item-id^="phone:tel:"]`)),
	}
	websiteStrategies = []Strategy{
		attr("item-id-authority", sel(`a[data-item-id="authority"]`), "href"),
	}
)

var (
	ratingRe  = regexp.MustCompile(`([\d.]+)`)
	reviewsRe = regexp.MustCompile(`(\d+)\s+reviews`)
)

// ListListings returns the listing candidates in a results snapshot.
//
// Primary strategy: elements carrying the listing marker class. Fallback
// (only when the primary yields zero): the results-feed container's direct
// element children. The fallback is the defense against upstream class
// churn: a renamed marker class must degrade to a structural heuristic,
// never to an empty result while the feed visibly has entries.
func ListListings(doc *goquery.Document) []*goquery.Selection {
	collect := func(s *goquery.Selection) []*goquery.Selection {
		out := make([]*goquery.Selection, 0, s.Length())
		s.Each(func(_ int, item *goquery.Selection) {
			out = append(out, item)
		})
		return out
	}

	primary := doc.FindMatcher(listingMarker)
	if primary.Length() > 0 {
		return collect(primary)
	}

	feed := doc.FindMatcher(resultsFeed).First()
	if feed.Length() == 0 {
		return nil
	}
	children := feed.Children().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return len(s.Nodes) > 0 && isContentNode(s.Nodes[0])
	})
	return collect(children)
}

// isContentNode filters out separator and spacer elements from the feed's
// direct children: a listing candidate is an element with some descendant
// text or a link.
func isContentNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return true
		}
	}
	return false
}

// ExtractRecord derives a lead from a detail-panel snapshot. Every field is
// pulled independently through its own strategy table; one field's miss
// never blocks the others. A listing whose name cannot be recovered is
// still emitted under the "N/A" sentinel; downstream wants to know a
// listing exists even when it cannot be named.
func ExtractRecord(root *goquery.Selection) models.Lead {
	name, _ := firstMatch(root, nameStrategies)
	category, _ := firstMatch(root, categoryStrategies)
	address, _ := firstMatch(root, addressStrategies)
	phone, _ := firstMatch(root, phoneStrategies)
	website, _ := firstMatch(root, websiteStrategies)
	rating, reviews := extractRating(root)

	return models.NewLead(name, category, address, phone, website, rating, reviews)
}

// extractRating pattern-matches the composite rating blob for a decimal
// rating and a digit run preceding the "reviews" token. Either may be
// absent independently.
func extractRating(root *goquery.Selection) (rating, reviews string) {
	blob, ok := firstMatchContaining(root, ratingBlobStrategies, "reviews")
	if !ok {
		// A blob without the reviews token can still carry a bare rating.
		blob, ok = firstMatch(root, ratingBlobStrategies)
		if !ok {
			return "", ""
		}
	}
	if m := ratingRe.FindStringSubmatch(blob); m != nil {
		rating = m[1]
	}
	if m := reviewsRe.FindStringSubmatch(blob); m != nil {
		reviews = m[1]
	}
	return rating, reviews
}

// firstMatchContaining is firstMatch restricted to hits whose text contains
// the given token.
func firstMatchContaining(root *goquery.Selection, strategies []Strategy, token string) (string, bool) {
	for _, st := range strategies {
		if v, ok := st.Find(root); ok && strings.Contains(v, token) {
			return v, true
		}
	}
	return "", false
}
