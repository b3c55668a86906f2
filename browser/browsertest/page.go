// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"

	"github.com/nstehr/ogbot/browser"
)

// Element is a fake DOM node.
type Element struct {
	Text  string
	Attrs map[string]string
}

// Page is a scripted browser.Page. Elements and RowsByQuery are keyed by
// selector query; anything not listed does not exist on the page.
type Page struct {
	URLValue    string
	Elements    map[string][]Element
	RowsByQuery map[string][]browser.Row

	// RowsFunc, if set, replaces RowsByQuery lookups.
	RowsFunc func(query string) []browser.Row
	// OnClick, if set, runs after every recorded click.
	OnClick func(query string)
	// Fail makes interactions with the listed queries return the error.
	Fail map[string]error

	Clicks []string
	Values map[string]string
}

func New() *Page {
	return &Page{
		Elements:    map[string][]Element{},
		RowsByQuery: map[string][]browser.Row{},
		Fail:        map[string]error{},
		Values:      map[string]string{},
	}
}

// Add places elements matching sel on the page.
func (p *Page) Add(sel browser.Selector, els ...Element) *Page {
	p.Elements[sel.Query] = append(p.Elements[sel.Query], els...)
	return p
}

// AddRows sets the rows returned for query.
func (p *Page) AddRows(query string, rows ...browser.Row) *Page {
	for i := range rows {
		rows[i].Index = i
	}
	p.RowsByQuery[query] = rows
	return p
}

// Clicked reports whether query was clicked.
func (p *Page) Clicked(query string) bool {
	for _, c := range p.Clicks {
		if c == query {
			return true
		}
	}
	return false
}

func (p *Page) lookup(sel browser.Selector) ([]Element, error) {
	if err := p.Fail[sel.Query]; err != nil {
		return nil, err
	}
	els := p.Elements[sel.Query]
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrNotFound)
	}
	return els, nil
}

func (p *Page) URL(ctx context.Context) (string, error) { return p.URLValue, nil }

func (p *Page) Count(ctx context.Context, sel browser.Selector) (int, error) {
	if err := p.Fail[sel.Query]; err != nil {
		return 0, err
	}
	return len(p.Elements[sel.Query]), nil
}

func (p *Page) Text(ctx context.Context, sel browser.Selector) (string, error) {
	els, err := p.lookup(sel)
	if err != nil {
		return "", err
	}
	return els[0].Text, nil
}

func (p *Page) Attr(ctx context.Context, sel browser.Selector, name string) (string, error) {
	els, err := p.lookup(sel)
	if err != nil {
		return "", err
	}
	if name == "value" {
		if v, ok := p.Values[sel.Query]; ok {
			return v, nil
		}
	}
	return els[0].Attrs[name], nil
}

func (p *Page) Click(ctx context.Context, sel browser.Selector) error {
	if _, err := p.lookup(sel); err != nil {
		return err
	}
	p.Clicks = append(p.Clicks, sel.Query)
	if p.OnClick != nil {
		p.OnClick(sel.Query)
	}
	return nil
}

func (p *Page) SetValue(ctx context.Context, sel browser.Selector, value string) error {
	if _, err := p.lookup(sel); err != nil {
		return err
	}
	p.Values[sel.Query] = value
	return nil
}

func (p *Page) Rows(ctx context.Context, query string, probes ...string) ([]browser.Row, error) {
	if err := p.Fail[query]; err != nil {
		return nil, err
	}
	if p.RowsFunc != nil {
		return p.RowsFunc(query), nil
	}
	return p.RowsByQuery[query], nil
}

func (p *Page) ClickRow(ctx context.Context, query string, index int, inner string) error {
	if err := p.Fail[query]; err != nil {
		return err
	}
	rows, _ := p.Rows(ctx, query)
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%s[%d]: %w", query, index, browser.ErrNotFound)
	}
	if inner != "" && !rows[index].Has(inner) {
		return fmt.Errorf("%s in %s[%d]: %w", inner, query, index, browser.ErrNotFound)
	}
	c := fmt.Sprintf("%s[%d] %s", query, index, inner)
	p.Clicks = append(p.Clicks, c)
	if p.OnClick != nil {
		p.OnClick(c)
	}
	return nil
}

var _ browser.Page = (*Page)(nil)
