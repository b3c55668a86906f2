package rules

import (
	"fmt"

	"github.com/nstehr/ogbot/model"
)

// CompileBuildRules generates the building choice rules from a doctrine.
// Conditions are built via fmt.Sprintf with interpolated values, so the
// compiler never generates invalid expr. The last rule always matches.
func CompileBuildRules(d Doctrine) []*Rule {
	d.Validate()

	// A higher economy priority keeps building mines longer before moving on.
	metalFloor := lerp(500, 1500, d.EconomyPriority)
	crystalFloor := lerp(250, 750, d.EconomyPriority)
	deutFloor := lerp(100, 300, d.EconomyPriority)

	// A higher tech priority reaches for the robotics factory sooner.
	speedMetal := lerp(3000, 1000, d.TechPriority)
	speedCrystal := lerp(1500, 500, d.TechPriority)

	return []*Rule{
		{
			Name:         "metal-shortage",
			Priority:     500,
			ConditionSrc: fmt.Sprintf(`Metal < %d && Crystal < %d`, metalFloor, metalFloor),
			Outcome:      string(model.MetalMine),
		},
		{
			Name:         "crystal-shortage",
			Priority:     400,
			ConditionSrc: fmt.Sprintf(`Crystal < %d`, crystalFloor),
			Outcome:      string(model.CrystalMine),
		},
		{
			Name:         "deuterium-shortage",
			Priority:     300,
			ConditionSrc: fmt.Sprintf(`Deuterium < %d`, deutFloor),
			Outcome:      string(model.DeuteriumSynthesizer),
		},
		{
			Name:         "build-speed",
			Priority:     200,
			ConditionSrc: fmt.Sprintf(`Metal > %d && Crystal > %d`, speedMetal, speedCrystal),
			Outcome:      string(model.RoboticsFactory),
		},
		{
			Name:         "energy",
			Priority:     100,
			ConditionSrc: `true`,
			Outcome:      string(model.SolarPlant),
		},
	}
}

// CompileTargetRules generates the raid target acceptance rules.
// Rejections outrank acceptances; anything unmatched is rejected.
func CompileTargetRules(d Doctrine) []*Rule {
	d.Validate()

	minScore := lerpf(30, 10, d.Aggression)
	highScore := lerpf(60, 20, d.Aggression)

	rules := []*Rule{
		{
			Name:         "score-too-low",
			Priority:     300,
			ConditionSrc: fmt.Sprintf(`Score < %g`, minScore),
			Outcome:      Reject,
		},
	}

	// Only a near-reckless doctrine will hit planets with a visible large fleet.
	if d.Aggression < 0.9 {
		rules = append(rules, &Rule{
			Name:         "fleet-too-large",
			Priority:     200,
			ConditionSrc: fmt.Sprintf(`FleetSize == %q`, string(model.FleetLarge)),
			Outcome:      Reject,
		})
	}

	rules = append(rules,
		&Rule{
			Name:         "inactive-player",
			Priority:     100,
			ConditionSrc: fmt.Sprintf(`Activity == %q`, string(model.ActivityInactive)),
			Outcome:      Accept,
		},
		&Rule{
			Name:         "high-score",
			Priority:     50,
			ConditionSrc: fmt.Sprintf(`Score > %g`, highScore),
			Outcome:      Accept,
		},
		&Rule{
			Name:         "default-reject",
			Priority:     0,
			ConditionSrc: `true`,
			Outcome:      Reject,
		},
	)
	return rules
}
