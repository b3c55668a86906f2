package empire

import (
	"context"
	"errors"
	"testing"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/browser/browsertest"
	"github.com/nstehr/ogbot/model"
)

func text(s string) browsertest.Element { return browsertest.Element{Text: s} }

func TestResources(t *testing.T) {
	tests := []struct {
		name string
		page func() *browsertest.Page
		want model.ResourceSnapshot
	}{
		{
			name: "resource ids",
			page: func() *browsertest.Page {
				return browsertest.New().
					Add(browser.CSS("#resources_metal"), text("12.345")).
					Add(browser.CSS("#resources_crystal"), text("6.789")).
					Add(browser.CSS("#resources_deuterium"), text("1.000")).
					Add(browser.CSS("#resources_energy"), text("-42"))
			},
			want: model.ResourceSnapshot{Metal: 12345, Crystal: 6789, Deuterium: 1000, Energy: 42},
		},
		{
			name: "fallback selectors",
			page: func() *browsertest.Page {
				return browsertest.New().
					Add(browser.CSS(".metal"), text("1,500")).
					Add(browser.CSS("[data-resource='crystal']"), text("800"))
			},
			want: model.ResourceSnapshot{Metal: 1500, Crystal: 800},
		},
		{
			name: "unparseable reads zero",
			page: func() *browsertest.Page {
				return browsertest.New().
					Add(browser.CSS("#metal"), text("n/a")).
					Add(browser.CSS("#crystal"), text("300"))
			},
			want: model.ResourceSnapshot{Crystal: 300},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewReader(tt.page()).Resources(context.Background())
			if err != nil {
				t.Fatalf("Resources: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resources = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResourcesNoCounters(t *testing.T) {
	p := browsertest.New().Add(browser.CSS("#resources_energy"), text("10"))
	_, err := NewReader(p).Resources(context.Background())
	if !errors.Is(err, ErrNoResources) {
		t.Errorf("Resources err = %v, want ErrNoResources", err)
	}
}

func TestResourcesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(browsertest.New()).Resources(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Resources err = %v, want context.Canceled", err)
	}
}

func TestColonies(t *testing.T) {
	planets := func(n int) []browsertest.Element { return make([]browsertest.Element, n) }
	tests := []struct {
		name string
		sel  string
		n    int
		want int
	}{
		{"home only", "#planetList .smallplanet", 1, 0},
		{"three colonies", "#planetList .smallplanet", 4, 3},
		{"dropdown", "#planetList option", 2, 1},
		{"no list", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := browsertest.New()
			if tt.sel != "" {
				p.Add(browser.CSS(tt.sel), planets(tt.n)...)
			}
			got, err := NewReader(p).Colonies(context.Background())
			if err != nil {
				t.Fatalf("Colonies: %v", err)
			}
			if got != tt.want {
				t.Errorf("Colonies = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBrokenPageIsNotMissing(t *testing.T) {
	closed := errors.New("websocket: close 1006")
	p := browsertest.New().
		Add(browser.CSS("#resources_metal"), text("100")).
		Add(browser.CSS("#resources_crystal"), text("200"))
	p.Fail["#resources_deuterium"] = closed
	p.Fail["#planetList .smallplanet"] = closed
	r := NewReader(p)

	if _, err := r.Resources(context.Background()); !errors.Is(err, closed) {
		t.Errorf("Resources err = %v, want %v", err, closed)
	}
	if _, err := r.Colonies(context.Background()); !errors.Is(err, closed) {
		t.Errorf("Colonies err = %v, want %v", err, closed)
	}
}
