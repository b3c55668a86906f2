// Package galaxy drives the galaxy view: opening it, stepping through
// nearby solar systems and reading the planet rows of each.
package galaxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/model"
)

var (
	navChain = []browser.Selector{
		browser.XPath(`//a[contains(@href, 'component=galaxy')]`),
		browser.XPath(`//a[contains(@href, 'galaxy')]`),
		browser.XPath(`//span[contains(text(), 'Galaxie')]/parent::a`),
		browser.CSS("#galaxy"),
		browser.CSS(".galaxy"),
	}
	galaxyInput = []browser.Selector{
		browser.CSS("input[name='galaxy']"),
		browser.CSS("#galaxy_input"),
	}
	systemInput = []browser.Selector{
		browser.CSS("input[name='system']"),
		browser.CSS("#system"),
		browser.CSS(".system-input"),
	}
	submitChain = []browser.Selector{
		browser.CSS("input[type='submit']"),
		browser.CSS(".submit"),
	}
	// RowQueries locate planet rows, tried in order until one matches.
	RowQueries = []string{".row", ".planet-row", "[class*='planet']", "tr"}
)

// ErrUnavailable means the galaxy view could not be opened.
var ErrUnavailable = errors.New("galaxy: view not available")

// Viewer opens and steps through the galaxy view.
type Viewer struct {
	Page browser.Page
}

// Open navigates to the galaxy view and returns the system it shows, which
// scans treat as home.
func (v *Viewer) Open(ctx context.Context) (model.Coordinates, error) {
	if _, err := browser.ClickFirst(ctx, v.Page, navChain); err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			return model.Coordinates{}, ErrUnavailable
		}
		return model.Coordinates{}, fmt.Errorf("open galaxy: %w", err)
	}
	slog.Info("navigated to galaxy view")
	return v.Current(ctx), nil
}

// Current reads the galaxy and system shown in the navigation inputs. An
// unreadable field defaults to 1.
func (v *Viewer) Current(ctx context.Context) model.Coordinates {
	return model.Coordinates{
		Galaxy: v.readInt(ctx, galaxyInput),
		System: v.readInt(ctx, systemInput),
	}
}

func (v *Viewer) readInt(ctx context.Context, chain []browser.Selector) int {
	sel, err := browser.FirstOf(ctx, v.Page, chain)
	if err != nil {
		return 1
	}
	raw, err := v.Page.Attr(ctx, sel, "value")
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Goto shows the given system of the current galaxy. Systems below 1 are
// clamped to 1.
func (v *Viewer) Goto(ctx context.Context, system int) (model.Coordinates, error) {
	system = max(1, system)
	if err := browser.SetFirst(ctx, v.Page, systemInput, strconv.Itoa(system)); err != nil {
		return model.Coordinates{}, fmt.Errorf("set system %d: %w", system, err)
	}
	if _, err := browser.ClickFirst(ctx, v.Page, submitChain); err != nil {
		return model.Coordinates{}, fmt.Errorf("submit system %d: %w", system, err)
	}
	return model.Coordinates{Galaxy: v.readInt(ctx, galaxyInput), System: system}, nil
}

// Rows returns the planet rows of the shown system from the first row query
// that matches, with probes evaluated inside each row.
func (v *Viewer) Rows(ctx context.Context, probes ...string) ([]browser.Row, error) {
	for _, q := range RowQueries {
		rows, err := v.Page.Rows(ctx, q, probes...)
		if err != nil && !errors.Is(err, browser.ErrNotFound) {
			return nil, fmt.Errorf("read rows %s: %w", q, err)
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

// Scan visits home.System+offset for each offset and calls visit with the
// coordinates shown. A system whose navigation controls are missing is
// skipped; any other navigation error ends the scan. Each system is visited
// at most once.
func (v *Viewer) Scan(ctx context.Context, home model.Coordinates, offsets []int, visit func(model.Coordinates) error) error {
	seen := make(map[int]bool, len(offsets))
	for _, off := range offsets {
		if err := ctx.Err(); err != nil {
			return err
		}
		system := max(1, home.System+off)
		if seen[system] {
			continue
		}
		seen[system] = true
		at, err := v.Goto(ctx, system)
		if errors.Is(err, browser.ErrNotFound) {
			slog.Debug("skipping system", "offset", off, "error", err)
			continue
		}
		if err != nil {
			return err
		}
		if err := visit(at); err != nil {
			return err
		}
	}
	return nil
}

// Offsets returns -n..n inclusive.
func Offsets(n int) []int {
	out := make([]int, 0, 2*n+1)
	for i := -n; i <= n; i++ {
		out = append(out, i)
	}
	return out
}
