package fleet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/model"
)

// inventoryQueries find ship inputs or counters on the fleet page.
var inventoryQueries = []string{
	"input[name*='small'], input[name*='large'], input[name*='light'], input[name*='colony']",
	".ship-count",
	"[class*='ship']",
}

// Inventory reads how many ships of each type the fleet page offers. The
// caller must already be on the fleet page.
func Inventory(ctx context.Context, p browser.Page) (model.ShipInventory, error) {
	inv := model.ShipInventory{}
	for _, q := range inventoryQueries {
		rows, err := p.Rows(ctx, q)
		if err != nil && !errors.Is(err, browser.ErrNotFound) {
			return nil, fmt.Errorf("read ships %s: %w", q, err)
		}
		for _, r := range rows {
			t := shipType(r)
			if t == "" {
				continue
			}
			if n := shipCount(r); n > 0 {
				inv[t] = n
			}
		}
		if len(inv) > 0 {
			break
		}
	}
	return inv, nil
}

func shipType(r browser.Row) model.ShipType {
	name := r.Attr("name")
	if name == "" {
		name = r.Attr("id")
	}
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "large"):
		return model.LargeCargo
	case strings.Contains(name, "small") || strings.Contains(name, "cargo"):
		return model.SmallCargo
	case strings.Contains(name, "light") || strings.Contains(name, "fighter"):
		return model.LightFighter
	case strings.Contains(name, "colony"):
		return model.ColonyShip
	}
	return ""
}

// shipCount prefers the input's max, then its value, then its text.
func shipCount(r browser.Row) int {
	for _, s := range []string{r.Attr("max"), r.Attr("value"), r.Text} {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
