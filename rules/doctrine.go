package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Doctrine is the high-level posture the rule sets are compiled from.
// Weights are 0.0–1.0; the compiler maps them to concrete thresholds.
type Doctrine struct {
	Name            string  `json:"name"`
	Rationale       string  `json:"rationale"`
	EconomyPriority float64 `json:"economy_priority"`
	TechPriority    float64 `json:"tech_priority"`
	Aggression      float64 `json:"aggression"`
}

// DefaultDoctrine returns a balanced baseline doctrine.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:            "Balanced",
		Rationale:       "Default balanced strategy",
		EconomyPriority: 0.5,
		TechPriority:    0.5,
		Aggression:      0.5,
	}
}

// Validate clamps all weights to their valid ranges.
func (d *Doctrine) Validate() {
	d.EconomyPriority = clamp(d.EconomyPriority, 0, 1)
	d.TechPriority = clamp(d.TechPriority, 0, 1)
	d.Aggression = clamp(d.Aggression, 0, 1)
}

// LoadDoctrine reads a JSON doctrine from path. Weights missing from the file
// keep their balanced defaults.
func LoadDoctrine(path string) (Doctrine, error) {
	d := DefaultDoctrine()
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read doctrine: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("unmarshal doctrine %s: %w", path, err)
	}
	d.Validate()
	return d, nil
}

// lerp linearly interpolates between min and max by t (0–1), returning an int.
func lerp(min, max int, t float64) int {
	return min + int(math.Round(float64(max-min)*t))
}

// lerpf linearly interpolates between min and max by t (0–1), returning a float64.
func lerpf(min, max, t float64) float64 {
	return min + (max-min)*t
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
