package rules

import (
	"strings"
	"testing"

	"github.com/expr-lang/expr"
	"github.com/nstehr/ogbot/model"
)

func TestCompileBuildRulesBalanced(t *testing.T) {
	rules := CompileBuildRules(DefaultDoctrine())
	if len(rules) != 5 {
		t.Fatalf("CompileBuildRules returned %d rules, want 5", len(rules))
	}
	for _, r := range rules {
		if _, err := expr.Compile(r.ConditionSrc, expr.Env(BuildEnv{}), expr.AsBool()); err != nil {
			t.Errorf("rule %q failed to compile: %v\ncondition: %s", r.Name, err, r.ConditionSrc)
		}
	}
	want := map[string]string{
		"metal-shortage":     `Metal < 1000 && Crystal < 1000`,
		"crystal-shortage":   `Crystal < 500`,
		"deuterium-shortage": `Deuterium < 200`,
		"build-speed":        `Metal > 2000 && Crystal > 1000`,
		"energy":             `true`,
	}
	for _, r := range rules {
		if w, ok := want[r.Name]; !ok || r.ConditionSrc != w {
			t.Errorf("rule %q condition = %q, want %q", r.Name, r.ConditionSrc, w)
		}
	}
}

func TestCompileBuildRulesEconomyFocus(t *testing.T) {
	e, err := NewBuildingEngine(Doctrine{EconomyPriority: 1, TechPriority: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	// Balanced would move on to the solar plant here; an economy doctrine
	// keeps upgrading the metal mine.
	got, err := NextBuilding(e, model.ResourceSnapshot{Metal: 1200, Crystal: 800, Deuterium: 500})
	if err != nil {
		t.Fatal(err)
	}
	if got != model.MetalMine {
		t.Errorf("NextBuilding = %s, want %s", got, model.MetalMine)
	}
}

func TestCompileTargetRulesBalanced(t *testing.T) {
	rules := CompileTargetRules(DefaultDoctrine())
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		if _, err := expr.Compile(r.ConditionSrc, expr.Env(TargetEnv{}), expr.AsBool()); err != nil {
			t.Errorf("rule %q failed to compile: %v\ncondition: %s", r.Name, err, r.ConditionSrc)
		}
		names = append(names, r.Name)
	}
	got := strings.Join(names, ",")
	if got != "score-too-low,fleet-too-large,inactive-player,high-score,default-reject" {
		t.Errorf("target rules = %s", got)
	}
}

func TestCompileTargetRulesAggressive(t *testing.T) {
	d := DefaultDoctrine()
	d.Aggression = 1
	for _, r := range CompileTargetRules(d) {
		if r.Name == "fleet-too-large" {
			t.Error("fully aggressive doctrine should not reject large fleets")
		}
	}
	e, err := NewTargetEngine(d)
	if err != nil {
		t.Fatal(err)
	}
	target := model.RaidTarget{Score: 25, Activity: model.ActivityActive, FleetSize: model.FleetLarge}
	if !AcceptTarget(e, target) {
		t.Error("aggressive doctrine should accept a score-25 target")
	}
}

func TestCompileTargetRulesCautious(t *testing.T) {
	d := DefaultDoctrine()
	d.Aggression = 0
	e, err := NewTargetEngine(d)
	if err != nil {
		t.Fatal(err)
	}
	if AcceptTarget(e, model.RaidTarget{Score: 25, Activity: model.ActivityInactive, FleetSize: model.FleetSmall}) {
		t.Error("cautious doctrine should reject score below 30 even for inactive players")
	}
	if !AcceptTarget(e, model.RaidTarget{Score: 70, Activity: model.ActivityInactive, FleetSize: model.FleetSmall}) {
		t.Error("cautious doctrine should still accept strong inactive targets")
	}
}
