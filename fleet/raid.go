package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/galaxy"
	"github.com/nstehr/ogbot/model"
	"github.com/nstehr/ogbot/rules"
)

// Raid defaults.
const (
	DefaultRaidShips  = 5
	DefaultScanRadius = 5
	maxTargets        = 10
)

// RaidPhase scans nearby systems for weak targets and sends a small cargo
// fleet at the best one.
type RaidPhase struct {
	Galaxy     *galaxy.Viewer
	Dispatcher *Dispatcher
	Engine     *rules.Engine
	Ships      int
	Radius     int
}

func NewRaidPhase(p browser.Page, engine *rules.Engine, ships int) *RaidPhase {
	if ships <= 0 {
		ships = DefaultRaidShips
	}
	return &RaidPhase{
		Galaxy:     &galaxy.Viewer{Page: p},
		Dispatcher: NewDispatcher(p),
		Engine:     engine,
		Ships:      ships,
		Radius:     DefaultScanRadius,
	}
}

func (r *RaidPhase) Name() model.PhaseName { return model.PhaseRaid }

// Run ignores the status; the raid gate already checked it.
func (r *RaidPhase) Run(ctx context.Context, _ model.EmpireStatus) (bool, error) {
	targets, err := r.Scan(ctx)
	if err != nil {
		return false, err
	}
	if len(targets) == 0 {
		slog.Info("no suitable raid targets found")
		return false, nil
	}
	best := targets[0]
	slog.Info("best raid target",
		"target", best.Coordinates.String(),
		"player", best.Player,
		"score", best.Score,
		"candidates", len(targets),
	)

	err = r.Dispatcher.Send(ctx, Order{
		// Fighters carry loot too when no cargo ships are stationed.
		Legs:    []Leg{{Ship: model.SmallCargo, Count: r.Ships, Alternates: []model.ShipType{model.LightFighter}}},
		Target:  best.Coordinates,
		Mission: MissionAttack,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrUnsafe):
		slog.Info("raid not launched", "reason", err)
		return false, nil
	default:
		return false, fmt.Errorf("launch raid at %s: %w", best.Coordinates, err)
	}
}

// Scan walks the systems around home and returns accepted targets, best
// first. A missing galaxy view yields no targets.
func (r *RaidPhase) Scan(ctx context.Context) ([]model.RaidTarget, error) {
	home, err := r.Galaxy.Open(ctx)
	if errors.Is(err, galaxy.ErrUnavailable) {
		slog.Warn("could not find galaxy navigation")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var targets []model.RaidTarget
	err = r.Galaxy.Scan(ctx, home, galaxy.Offsets(r.Radius), func(at model.Coordinates) error {
		rows, err := r.Galaxy.Rows(ctx, ProbePlayer, ProbeInactive, ProbeFleet)
		if err != nil {
			return err
		}
		for _, row := range rows {
			t, ok := AnalyzeRow(row)
			if !ok {
				continue
			}
			if rules.AcceptTarget(r.Engine, t) {
				targets = append(targets, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	targets = Rank(targets, maxTargets)
	slog.Info("raid scan complete", "targets", len(targets))
	return targets, nil
}
