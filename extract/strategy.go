package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Strategy is one locator rule for a field: a pure function from markup to
// an optional value. Each field owns a ranked list of strategies, tried in
// order until one hits. Markup churn on the target is absorbed here, in one
// table per field, instead of leaking selector literals through the
// extraction logic.
type Strategy struct {
	Name string
	Find func(root *goquery.Selection) (string, bool)
}

// sel compiles a CSS selector once at init. A bad selector is a programming
// error, so panicking via MustCompile is the right failure mode.
func sel(css string) cascadia.Selector {
	return cascadia.MustCompile(css)
}

// text returns a strategy that yields the trimmed text of the first element
// matching m, if non-empty.
func text(name string, m cascadia.Selector) Strategy {
	return Strategy{
		Name: name,
		Find: func(root *goquery.Selection) (string, bool) {
			s := root.FindMatcher(m).First()
			if s.Length() == 0 {
				return "", false
			}
			v := strings.TrimSpace(s.Text())
			return v, v != ""
		},
	}
}

// attr returns a strategy that yields the named attribute of the first
// element matching m, if present and non-empty.
func attr(name string, m cascadia.Selector, attrName string) Strategy {
	return Strategy{
		Name: name,
		Find: func(root *goquery.Selection) (string, bool) {
			s := root.FindMatcher(m).First()
			if s.Length() == 0 {
				return "", false
			}
			v, ok := s.Attr(attrName)
			v = strings.TrimSpace(v)
			return v, ok && v != ""
		},
	}
}

// firstMatch runs the ranked strategies in order and returns the first hit.
// A miss across the whole table is not an error; it is the field's
// fallback-to-absent policy.
func firstMatch(root *goquery.Selection, strategies []Strategy) (string, bool) {
	for _, st := range strategies {
		if v, ok := st.Find(root); ok {
			return v, true
		}
	}
	return "", false
}
