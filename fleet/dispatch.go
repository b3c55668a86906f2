// Package fleet sends fleets from the fleet page and runs the raid phase.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/model"
)

// Mission is the numeric mission code the fleet form uses.
type Mission int

const (
	MissionAttack   Mission = 1
	MissionColonize Mission = 7
)

func (m Mission) String() string {
	switch m {
	case MissionAttack:
		return "attack"
	case MissionColonize:
		return "colonize"
	}
	return "mission-" + strconv.Itoa(int(m))
}

var (
	// ErrUnavailable means the fleet page or the requested ships are not
	// there. Callers treat it as "not ready", not as a failure.
	ErrUnavailable = errors.New("fleet: not available")
	// ErrUnsafe means the safety check refused to send.
	ErrUnsafe = errors.New("fleet: safety check refused launch")
)

var (
	navChain = []browser.Selector{
		browser.XPath(`//a[contains(@href, 'component=fleetdispatch')]`),
		browser.XPath(`//a[contains(@href, 'component=fleet')]`),
		browser.XPath(`//a[contains(@href, 'fleet')]`),
		browser.XPath(`//span[contains(text(), 'Flotte')]/parent::a`),
		browser.CSS("#fleet"),
		browser.CSS(".fleet"),
	}
	sendChain = []browser.Selector{
		browser.CSS("input[value='Senden']"),
		browser.CSS("#sendFleet"),
		browser.CSS(".send-fleet"),
		browser.CSS("input[type='submit']"),
	}
	// DefaultDangerKeywords block a launch when they appear in the page text.
	DefaultDangerKeywords = []string{"destroy", "vernichten", "total", "alle schiffe"}
)

// ShipInputs maps each ship type to the form inputs it may be entered in.
var ShipInputs = map[model.ShipType][]browser.Selector{
	model.SmallCargo:   {browser.CSS("input[name*='small']"), browser.CSS("input[name*='transporterSmall']"), browser.CSS(".ship-small"), browser.CSS("input[class*='transport']")},
	model.LargeCargo:   {browser.CSS("input[name*='large']"), browser.CSS("input[name*='transporterLarge']")},
	model.LightFighter: {browser.CSS("input[name*='light']"), browser.CSS("input[name*='fighterLight']")},
	model.ColonyShip:   {browser.CSS("input[name*='colony']"), browser.CSS("input[name*='colonyShip']")},
}

func coordinateInput(field string) []browser.Selector {
	chain := []browser.Selector{browser.CSS("input[name='" + field + "']")}
	if field == "planet" {
		chain = append(chain, browser.CSS("input[name='position']"))
	}
	return chain
}

func missionChain(m Mission) []browser.Selector {
	v := strconv.Itoa(int(m))
	return []browser.Selector{
		browser.CSS("input[name='mission'][value='" + v + "']"),
		browser.CSS("input[value='" + v + "']"),
		browser.CSS(".mission-" + m.String()),
		browser.CSS("#missionButton" + v),
	}
}

// Leg is one ship type and how many of it to send. When the ship's input is
// missing, the Alternates are tried in order; Optional legs are skipped
// when none is offered.
type Leg struct {
	Ship       model.ShipType
	Count      int
	Optional   bool
	Alternates []model.ShipType
}

func (l Leg) inputs() []browser.Selector {
	chain := append([]browser.Selector(nil), ShipInputs[l.Ship]...)
	for _, alt := range l.Alternates {
		chain = append(chain, ShipInputs[alt]...)
	}
	return chain
}

// Order describes one fleet launch.
type Order struct {
	Legs    []Leg
	Target  model.Coordinates
	Mission Mission
}

// Dispatcher fills and submits the fleet form.
type Dispatcher struct {
	Page           browser.Page
	DangerKeywords []string
}

func NewDispatcher(p browser.Page) *Dispatcher {
	return &Dispatcher{Page: p, DangerKeywords: DefaultDangerKeywords}
}

// Open navigates to the fleet page.
func (d *Dispatcher) Open(ctx context.Context) error {
	if _, err := browser.ClickFirst(ctx, d.Page, navChain); err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			return fmt.Errorf("fleet page: %w", ErrUnavailable)
		}
		return fmt.Errorf("open fleet page: %w", err)
	}
	slog.Info("navigated to fleet page")
	return nil
}

// Send opens the fleet page and launches o. A missing page or missing
// first leg returns ErrUnavailable; once ships are entered, any missing
// control is a hard error because the form is half filled.
func (d *Dispatcher) Send(ctx context.Context, o Order) error {
	if err := d.Open(ctx); err != nil {
		return err
	}

	for i, leg := range o.Legs {
		err := browser.SetFirst(ctx, d.Page, leg.inputs(), strconv.Itoa(leg.Count))
		switch {
		case err == nil:
			slog.Debug("selected ships", "ship", leg.Ship, "count", leg.Count)
		case errors.Is(err, browser.ErrNotFound) && leg.Optional:
			slog.Debug("optional ships not offered", "ship", leg.Ship)
		case errors.Is(err, browser.ErrNotFound) && i == 0:
			return fmt.Errorf("%s input: %w", leg.Ship, ErrUnavailable)
		default:
			return fmt.Errorf("select %s: %w", leg.Ship, err)
		}
	}

	for _, f := range []struct {
		field string
		value int
	}{
		{"galaxy", o.Target.Galaxy},
		{"system", o.Target.System},
		{"planet", o.Target.Position},
	} {
		if err := browser.SetFirst(ctx, d.Page, coordinateInput(f.field), strconv.Itoa(f.value)); err != nil {
			return fmt.Errorf("set target %s: %w", f.field, err)
		}
	}
	slog.Info("target coordinates set", "target", o.Target.String())

	if _, err := browser.ClickFirst(ctx, d.Page, missionChain(o.Mission)); err != nil {
		return fmt.Errorf("select %s mission: %w", o.Mission, err)
	}

	send, err := browser.FirstOf(ctx, d.Page, sendChain)
	if err != nil {
		return fmt.Errorf("send button: %w", err)
	}
	kw, ok, err := d.safe(ctx)
	if err != nil {
		return fmt.Errorf("safety check: %w", err)
	}
	if !ok {
		slog.Warn("dangerous keyword on fleet page, not launching", "keyword", kw)
		return fmt.Errorf("keyword %q: %w", kw, ErrUnsafe)
	}
	if err := d.Page.Click(ctx, send); err != nil {
		return fmt.Errorf("send fleet: %w", err)
	}
	slog.Info("fleet launched", "mission", o.Mission.String(), "target", o.Target.String())
	return nil
}

// safe checks the visible page text for keywords that signal a launch could
// commit more than intended. A page without a body has nothing to check.
func (d *Dispatcher) safe(ctx context.Context) (string, bool, error) {
	txt, err := d.Page.Text(ctx, browser.CSS("body"))
	if errors.Is(err, browser.ErrNotFound) {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}
	txt = strings.ToLower(txt)
	for _, kw := range d.DangerKeywords {
		if strings.Contains(txt, strings.ToLower(kw)) {
			return kw, false, nil
		}
	}
	return "", true, nil
}
