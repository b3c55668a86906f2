// Package empire reads the empire's resource bar and planet list from the
// game page.
package empire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/model"
)

// ErrNoResources means none of metal, crystal or deuterium could be found.
var ErrNoResources = errors.New("empire: no resource counters on page")

// resourceChain lists where a resource counter may live, most specific first.
func resourceChain(name string) []browser.Selector {
	return []browser.Selector{
		browser.CSS("#resources_" + name),
		browser.CSS("#" + name),
		browser.CSS("#resource_" + name),
		browser.CSS("." + name),
		browser.CSS("[data-resource='" + name + "']"),
		browser.CSS(".resource_" + name),
	}
}

// planetListChain locates the planet switcher. Its entries include the home
// planet.
var planetListChain = []browser.Selector{
	browser.CSS("#planetList .smallplanet"),
	browser.CSS(".planet-list .planet"),
	browser.CSS("#planetList option"),
	browser.CSS(".planet-selector option"),
}

// Reader implements the controller's Observer on top of a Page.
type Reader struct {
	Page browser.Page
}

func NewReader(p browser.Page) *Reader {
	return &Reader{Page: p}
}

// Resources reads the resource bar. A single missing counter reads as zero;
// only a page with no stock counters at all is an error.
func (r *Reader) Resources(ctx context.Context) (model.ResourceSnapshot, error) {
	var res model.ResourceSnapshot
	found := 0
	for _, f := range []struct {
		name  string
		dst   *int64
		stock bool
	}{
		{"metal", &res.Metal, true},
		{"crystal", &res.Crystal, true},
		{"deuterium", &res.Deuterium, true},
		{"energy", &res.Energy, false},
	} {
		txt, err := browser.TextFirst(ctx, r.Page, resourceChain(f.name))
		if errors.Is(err, browser.ErrNotFound) {
			slog.Debug("resource counter not found", "resource", f.name)
			continue
		}
		if err != nil {
			return model.ResourceSnapshot{}, fmt.Errorf("read %s: %w", f.name, err)
		}
		*f.dst = model.ParseAmount(txt)
		if f.stock {
			found++
		}
	}
	if found == 0 {
		return model.ResourceSnapshot{}, ErrNoResources
	}
	return res, nil
}

// Colonies counts owned planets other than the home planet. A page without a
// planet list has only the home planet.
func (r *Reader) Colonies(ctx context.Context) (int, error) {
	sel, err := browser.FirstOf(ctx, r.Page, planetListChain)
	if errors.Is(err, browser.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := r.Page.Count(ctx, sel)
	if err != nil {
		return 0, fmt.Errorf("count planets: %w", err)
	}
	return max(0, n-1), nil
}
