package fleet

import (
	"context"
	"errors"
	"testing"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/browser/browsertest"
	"github.com/nstehr/ogbot/model"
)

// fleetPage is a fleet dispatch form with small cargo, colony ship and all
// target inputs present.
func fleetPage(body string) *browsertest.Page {
	el := browsertest.Element{}
	return browsertest.New().
		Add(browser.CSS("#fleet"), el).
		Add(browser.CSS("input[name*='small']"), el).
		Add(browser.CSS("input[name*='colony']"), el).
		Add(browser.CSS("input[name='galaxy']"), el).
		Add(browser.CSS("input[name='system']"), el).
		Add(browser.CSS("input[name='planet']"), el).
		Add(browser.CSS("input[name='mission'][value='1']"), el).
		Add(browser.CSS("input[name='mission'][value='7']"), el).
		Add(browser.CSS("#sendFleet"), el).
		Add(browser.CSS("body"), browsertest.Element{Text: body})
}

var target = model.Coordinates{Galaxy: 1, System: 42, Position: 7}

func TestSendAttack(t *testing.T) {
	p := fleetPage("Flotte versenden")
	err := NewDispatcher(p).Send(context.Background(), Order{
		Legs:    []Leg{{Ship: model.SmallCargo, Count: 5}},
		Target:  target,
		Mission: MissionAttack,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	wantValues := map[string]string{
		"input[name*='small']": "5",
		"input[name='galaxy']": "1",
		"input[name='system']": "42",
		"input[name='planet']": "7",
	}
	for k, want := range wantValues {
		if got := p.Values[k]; got != want {
			t.Errorf("value %s = %q, want %q", k, got, want)
		}
	}
	for _, c := range []string{"#fleet", "input[name='mission'][value='1']", "#sendFleet"} {
		if !p.Clicked(c) {
			t.Errorf("%s not clicked; clicks = %v", c, p.Clicks)
		}
	}
}

func TestSendSkipsMissingOptionalLeg(t *testing.T) {
	p := fleetPage("")
	err := NewDispatcher(p).Send(context.Background(), Order{
		Legs: []Leg{
			{Ship: model.ColonyShip, Count: 1},
			{Ship: model.SmallCargo, Count: 20},
			{Ship: model.LightFighter, Count: 10, Optional: true},
		},
		Target:  target,
		Mission: MissionColonize,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !p.Clicked("input[name='mission'][value='7']") {
		t.Errorf("colonize mission not selected; clicks = %v", p.Clicks)
	}
}

func TestSendPositionFallback(t *testing.T) {
	p := fleetPage("")
	delete(p.Elements, "input[name='planet']")
	p.Add(browser.CSS("input[name='position']"), browsertest.Element{})
	err := NewDispatcher(p).Send(context.Background(), Order{
		Legs:    []Leg{{Ship: model.SmallCargo, Count: 5}},
		Target:  target,
		Mission: MissionAttack,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := p.Values["input[name='position']"]; got != "7" {
		t.Errorf("position = %q, want %q", got, "7")
	}
}

func TestSendFailures(t *testing.T) {
	order := Order{
		Legs:    []Leg{{Ship: model.SmallCargo, Count: 5}},
		Target:  target,
		Mission: MissionAttack,
	}
	tests := []struct {
		name        string
		remove      []string
		body        string
		unavailable bool
		unsafe      bool
	}{
		{name: "no fleet page", remove: []string{"#fleet"}, unavailable: true},
		{name: "no ships", remove: []string{"input[name*='small']"}, unavailable: true},
		{name: "half filled form", remove: []string{"input[name='system']"}},
		{name: "no mission", remove: []string{"input[name='mission'][value='1']"}},
		{name: "no send button", remove: []string{"#sendFleet"}},
		{name: "danger keyword", body: "Alle Schiffe werden VERNICHTET", unsafe: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fleetPage(tt.body)
			for _, q := range tt.remove {
				delete(p.Elements, q)
			}
			err := NewDispatcher(p).Send(context.Background(), order)
			if err == nil {
				t.Fatal("Send err = nil, want error")
			}
			if got := errors.Is(err, ErrUnavailable); got != tt.unavailable {
				t.Errorf("errors.Is(err, ErrUnavailable) = %v, want %v (err %v)", got, tt.unavailable, err)
			}
			if got := errors.Is(err, ErrUnsafe); got != tt.unsafe {
				t.Errorf("errors.Is(err, ErrUnsafe) = %v, want %v (err %v)", got, tt.unsafe, err)
			}
			if p.Clicked("#sendFleet") {
				t.Error("fleet was sent")
			}
		})
	}
}

func TestMissionString(t *testing.T) {
	tests := []struct {
		m    Mission
		want string
	}{
		{MissionAttack, "attack"},
		{MissionColonize, "colonize"},
		{Mission(3), "mission-3"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("Mission(%d).String() = %q, want %q", int(tt.m), got, tt.want)
		}
	}
}
