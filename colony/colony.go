// Package colony finds free planet slots and sends colony ships to them.
package colony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/fleet"
	"github.com/nstehr/ogbot/galaxy"
	"github.com/nstehr/ogbot/model"
)

const (
	// MaxColonies is the colony cap beyond which no colony ship is sent.
	MaxColonies = 9
	// DefaultScanRadius is how many systems either side of home are searched.
	DefaultScanRadius = 10
	maxSlots          = 5
)

// PreferredPositions are the planet positions worth colonizing.
var PreferredPositions = []int{4, 5, 6, 7, 8}

// RequiredShips must be on the planet before a colony fleet leaves.
var RequiredShips = model.ShipInventory{
	model.ColonyShip:   1,
	model.SmallCargo:   20,
	model.LightFighter: 10,
}

// ProbeOccupied matches anything inside a position cell that means a planet
// is already there.
const ProbeOccupied = ".planet, .occupied, img[src*='planet'], [class*='planet']"

// Phase checks ship and colony limits, finds the best free slot nearby and
// launches a colonization fleet.
type Phase struct {
	Page       browser.Page
	Galaxy     *galaxy.Viewer
	Dispatcher *fleet.Dispatcher
	Radius     int
}

func NewPhase(p browser.Page) *Phase {
	return &Phase{
		Page:       p,
		Galaxy:     &galaxy.Viewer{Page: p},
		Dispatcher: fleet.NewDispatcher(p),
		Radius:     DefaultScanRadius,
	}
}

func (c *Phase) Name() model.PhaseName { return model.PhaseColonize }

func (c *Phase) Run(ctx context.Context, st model.EmpireStatus) (bool, error) {
	ready, reason, err := c.Ready(ctx, st)
	if err != nil {
		return false, err
	}
	if !ready {
		slog.Info("colonization not ready", "reason", reason)
		return false, nil
	}

	slots, err := c.FindSlots(ctx)
	if err != nil {
		return false, err
	}
	if len(slots) == 0 {
		slog.Info("no colonization targets found")
		return false, nil
	}
	best := slots[0]
	slog.Info("best colonization target", "target", best.Coordinates.String(), "score", best.Score)

	err = c.Dispatcher.Send(ctx, fleet.Order{
		Legs: []fleet.Leg{
			{Ship: model.ColonyShip, Count: RequiredShips[model.ColonyShip]},
			{Ship: model.SmallCargo, Count: RequiredShips[model.SmallCargo]},
			{Ship: model.LightFighter, Count: RequiredShips[model.LightFighter], Optional: true},
		},
		Target:  best.Coordinates,
		Mission: fleet.MissionColonize,
	})
	switch {
	case err == nil:
		slog.Info("colonization fleet launched", "target", best.Coordinates.String())
		return true, nil
	case errors.Is(err, fleet.ErrUnavailable), errors.Is(err, fleet.ErrUnsafe):
		slog.Info("colonization fleet not launched", "reason", err)
		return false, nil
	default:
		return false, fmt.Errorf("launch colony ship to %s: %w", best.Coordinates, err)
	}
}

// Ready checks everything beyond the resource gate: the colony cap, using
// the count observed with st, and the ships on hand. The reason explains a
// false result.
func (c *Phase) Ready(ctx context.Context, st model.EmpireStatus) (bool, string, error) {
	if !st.ReadyForColonization {
		return false, "insufficient resources", nil
	}

	colonies := st.Colonies
	if colonies >= MaxColonies {
		return false, "maximum colonies reached", nil
	}

	if err := c.Dispatcher.Open(ctx); err != nil {
		if errors.Is(err, fleet.ErrUnavailable) {
			return false, "fleet page not available", nil
		}
		return false, "", err
	}
	inv, err := fleet.Inventory(ctx, c.Page)
	if err != nil {
		return false, "", fmt.Errorf("read ships: %w", err)
	}
	if ok, short := inv.Covers(RequiredShips); !ok {
		slog.Info("ship shortage", "ship", short, "have", inv[short], "need", RequiredShips[short])
		return false, "ships not available", nil
	}
	slog.Info("colonization ready", "colonies", colonies)
	return true, "", nil
}

// FindSlots scans the systems around home for free preferred positions and
// returns the best few.
func (c *Phase) FindSlots(ctx context.Context) ([]model.ColonySlot, error) {
	home, err := c.Galaxy.Open(ctx)
	if errors.Is(err, galaxy.ErrUnavailable) {
		slog.Warn("could not find galaxy navigation")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var slots []model.ColonySlot
	err = c.Galaxy.Scan(ctx, home, galaxy.Offsets(c.Radius), func(at model.Coordinates) error {
		for _, pos := range PreferredPositions {
			free, err := c.slotFree(ctx, pos)
			if err != nil {
				return err
			}
			if !free {
				continue
			}
			coords := model.Coordinates{Galaxy: at.Galaxy, System: at.System, Position: pos}
			slots = append(slots, model.ColonySlot{Coordinates: coords, Score: SlotScore(coords, home)})
			slog.Info("found free slot", "coordinates", coords.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Score > slots[j].Score })
	if len(slots) > maxSlots {
		slots = slots[:maxSlots]
	}
	return slots, nil
}

func positionQuery(pos int) string {
	return fmt.Sprintf("td[class*='position-%d']", pos)
}

// slotFree reports whether the cell for pos exists and shows no planet.
func (c *Phase) slotFree(ctx context.Context, pos int) (bool, error) {
	rows, err := c.Page.Rows(ctx, positionQuery(pos), ProbeOccupied)
	if err != nil && !errors.Is(err, browser.ErrNotFound) {
		return false, fmt.Errorf("read position %d: %w", pos, err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	cell := rows[0]
	if cell.Has(ProbeOccupied) {
		return false, nil
	}
	// A bare position number is fine; anything longer is a planet name.
	return len(strings.TrimSpace(cell.Text)) <= 2, nil
}

// SlotScore prefers middle positions close to home.
func SlotScore(c, home model.Coordinates) int {
	score := 0
	for _, p := range PreferredPositions {
		if c.Position == p {
			score += 20
			break
		}
	}
	if c.Position >= 4 && c.Position <= 9 {
		score += 10
	}
	dist := c.System - home.System
	if dist < 0 {
		dist = -dist
	}
	if c.Galaxy != home.Galaxy {
		dist = 30
	}
	score -= min(dist, 30)
	return max(0, score)
}
