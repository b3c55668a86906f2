package rules

import (
	"errors"
	"testing"

	"github.com/nstehr/ogbot/model"
)

func TestDefaultRulesCompile(t *testing.T) {
	engine, err := NewBuildingEngine(DefaultDoctrine())
	if err != nil {
		t.Fatalf("NewBuildingEngine() failed: %v", err)
	}
	if len(engine.rules) != 5 {
		t.Errorf("expected 5 building rules, got %d", len(engine.rules))
	}
	// Verify priority ordering (descending).
	for i := 1; i < len(engine.rules); i++ {
		if engine.rules[i].Priority > engine.rules[i-1].Priority {
			t.Errorf("rules not sorted by priority: %s (%d) > %s (%d)",
				engine.rules[i].Name, engine.rules[i].Priority,
				engine.rules[i-1].Name, engine.rules[i-1].Priority)
		}
	}
	if _, err := NewTargetEngine(DefaultDoctrine()); err != nil {
		t.Fatalf("NewTargetEngine() failed: %v", err)
	}
}

func TestNewEngine_RejectsBadCondition(t *testing.T) {
	_, err := NewEngine([]*Rule{{Name: "broken", ConditionSrc: `Metal <`}}, BuildEnv{})
	if err == nil {
		t.Fatal("expected compile error")
	}
	_, err = NewEngine([]*Rule{{Name: "unknown-field", ConditionSrc: `Gold > 1`}}, BuildEnv{})
	if err == nil {
		t.Fatal("expected compile error for unknown field")
	}
	_, err = NewEngine([]*Rule{{Name: "not-bool", ConditionSrc: `Metal + 1`}}, BuildEnv{})
	if err == nil {
		t.Fatal("expected compile error for non-bool condition")
	}
}

func TestNewEngine_DoesNotMutateInput(t *testing.T) {
	in := []*Rule{
		{Name: "low", Priority: 1, ConditionSrc: `true`},
		{Name: "high", Priority: 9, ConditionSrc: `true`},
	}
	e, err := NewEngine(in, BuildEnv{})
	if err != nil {
		t.Fatal(err)
	}
	if in[0].Name != "low" || in[0].program != nil {
		t.Error("input rules were reordered or mutated")
	}
	if got := e.Rules()[0].Name; got != "high" {
		t.Errorf("first rule = %q, want high", got)
	}
}

func TestDecide_NoMatch(t *testing.T) {
	e, err := NewEngine([]*Rule{{Name: "never", ConditionSrc: `false`}}, BuildEnv{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Decide(BuildEnv{}); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Decide err = %v, want ErrNoMatch", err)
	}
}

func TestNextBuilding(t *testing.T) {
	e, err := NewBuildingEngine(DefaultDoctrine())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		res  model.ResourceSnapshot
		want model.BuildingKey
	}{
		{model.ResourceSnapshot{Metal: 600, Crystal: 300}, model.MetalMine},
		{model.ResourceSnapshot{Metal: 1500, Crystal: 300}, model.CrystalMine},
		{model.ResourceSnapshot{Metal: 1500, Crystal: 800, Deuterium: 100}, model.DeuteriumSynthesizer},
		{model.ResourceSnapshot{Metal: 2500, Crystal: 1200, Deuterium: 500}, model.RoboticsFactory},
		{model.ResourceSnapshot{Metal: 1500, Crystal: 800, Deuterium: 500}, model.SolarPlant},
	}
	for _, tc := range tests {
		got, err := NextBuilding(e, tc.res)
		if err != nil {
			t.Fatalf("NextBuilding(%v): %v", tc.res, err)
		}
		if got != tc.want {
			t.Errorf("NextBuilding(%v) = %s, want %s", tc.res, got, tc.want)
		}
	}
}

func TestAcceptTarget(t *testing.T) {
	e, err := NewTargetEngine(DefaultDoctrine())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		target model.RaidTarget
		want   bool
	}{
		{"inactive small", model.RaidTarget{Score: 75, Activity: model.ActivityInactive, FleetSize: model.FleetSmall}, true},
		{"inactive but large fleet", model.RaidTarget{Score: 25, Activity: model.ActivityInactive, FleetSize: model.FleetLarge}, false},
		{"low score", model.RaidTarget{Score: 10, Activity: model.ActivityInactive, FleetSize: model.FleetSmall}, false},
		{"active high score", model.RaidTarget{Score: 45, Activity: model.ActivityActive, FleetSize: model.FleetMedium}, true},
		{"active middling", model.RaidTarget{Score: 30, Activity: model.ActivityActive, FleetSize: model.FleetMedium}, false},
	}
	for _, tc := range tests {
		if got := AcceptTarget(e, tc.target); got != tc.want {
			t.Errorf("%s: AcceptTarget = %v, want %v", tc.name, got, tc.want)
		}
	}
}
