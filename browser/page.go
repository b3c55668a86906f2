package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrNotFound means no element matched a selector or fallback chain.
	ErrNotFound = errors.New("browser: element not found")
	// ErrNoEndpoint means no remote-debugging endpoint answered.
	ErrNoEndpoint = errors.New("browser: no debugging endpoint")
	// ErrNoTab means no game tab is attached yet.
	ErrNoTab = errors.New("browser: no game tab attached")
)

// Selector is a CSS query or, when XPath is set, an XPath expression.
type Selector struct {
	Query string
	XPath bool
}

func CSS(q string) Selector   { return Selector{Query: q} }
func XPath(q string) Selector { return Selector{Query: q, XPath: true} }

func (s Selector) String() string {
	if s.XPath {
		return "xpath:" + s.Query
	}
	return s.Query
}

// Row is one element returned by Rows, flattened to plain data. Probes holds
// the result of each sub-query evaluated inside the element.
type Row struct {
	Index  int               `json:"index"`
	Text   string            `json:"text"`
	Attrs  map[string]string `json:"attrs"`
	Probes map[string]Probe  `json:"probes"`
}

// Probe is the match count and first match text of a sub-query within a Row.
type Probe struct {
	Count int    `json:"count"`
	Text  string `json:"text"`
}

func (r Row) Attr(name string) string { return r.Attrs[name] }

// Has reports whether the probe matched at least once inside the row.
func (r Row) Has(probe string) bool { return r.Probes[probe].Count > 0 }

func (r Row) ProbeText(probe string) string { return r.Probes[probe].Text }

// HasClass reports whether the row's class attribute contains c as a
// substring, matching the [class*=...] style the game markup needs.
func (r Row) HasClass(c string) bool {
	return strings.Contains(strings.ToLower(r.Attrs["class"]), strings.ToLower(c))
}

// Page is the DOM surface the game phases drive. Implementations must not
// block longer than their own action timeout.
type Page interface {
	URL(ctx context.Context) (string, error)
	Count(ctx context.Context, sel Selector) (int, error)
	// Text returns the visible text of the first match, or ErrNotFound.
	Text(ctx context.Context, sel Selector) (string, error)
	// Attr returns an attribute of the first match. "value" reads the live
	// form value rather than the markup attribute.
	Attr(ctx context.Context, sel Selector, name string) (string, error)
	Click(ctx context.Context, sel Selector) error
	// SetValue clears the first matching input and types value into it.
	SetValue(ctx context.Context, sel Selector, value string) error
	// Rows returns every element matching the CSS query along with the
	// result of each probe sub-query inside it.
	Rows(ctx context.Context, query string, probes ...string) ([]Row, error)
	// ClickRow clicks the first match of inner inside the index-th element
	// matching query. An empty inner clicks the element itself.
	ClickRow(ctx context.Context, query string, index int, inner string) error
}

// FirstOf returns the first selector in chain with at least one match, or
// ErrNotFound when none match. Any other lookup error means the page
// itself is unusable and is returned as is.
func FirstOf(ctx context.Context, p Page, chain []Selector) (Selector, error) {
	for _, sel := range chain {
		if err := ctx.Err(); err != nil {
			return Selector{}, err
		}
		n, err := p.Count(ctx, sel)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Selector{}, fmt.Errorf("lookup %s: %w", sel, err)
		}
		if n > 0 {
			return sel, nil
		}
		slog.Debug("selector not matched", "selector", sel.String())
	}
	return Selector{}, ErrNotFound
}

// ClickFirst clicks the first selector in chain that matches.
func ClickFirst(ctx context.Context, p Page, chain []Selector) (Selector, error) {
	sel, err := FirstOf(ctx, p, chain)
	if err != nil {
		return Selector{}, err
	}
	return sel, p.Click(ctx, sel)
}

// TextFirst reads the text of the first selector in chain that matches.
func TextFirst(ctx context.Context, p Page, chain []Selector) (string, error) {
	sel, err := FirstOf(ctx, p, chain)
	if err != nil {
		return "", err
	}
	return p.Text(ctx, sel)
}

// SetFirst fills the first selector in chain that matches.
func SetFirst(ctx context.Context, p Page, chain []Selector, value string) error {
	sel, err := FirstOf(ctx, p, chain)
	if err != nil {
		return err
	}
	return p.SetValue(ctx, sel, value)
}
