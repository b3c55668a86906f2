package fleet

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/model"
)

// Probes evaluated inside each galaxy row.
const (
	ProbePlayer   = ".player, .playername, a[href*='player']"
	ProbeInactive = ".inactive, .vacation, .long_inactive, [class*='inactive'], [title*='inactive']"
	ProbeFleet    = ".fleet, [class*='fleet']"
)

var (
	bracketCoords = regexp.MustCompile(`\[(\d+):(\d+):(\d+)\]`)
	digitRuns     = regexp.MustCompile(`\d+`)
)

// defaultLoot is assumed when a row carries no usable size hint.
const defaultLoot = 5000

// AnalyzeRow turns a galaxy row into a scored raid target. Rows without
// bracketed coordinates are not planets and return false.
func AnalyzeRow(r browser.Row) (model.RaidTarget, bool) {
	m := bracketCoords.FindString(r.Text)
	if m == "" {
		return model.RaidTarget{}, false
	}
	coords, ok := model.ParseCoordinates(m)
	if !ok {
		return model.RaidTarget{}, false
	}
	t := model.RaidTarget{
		Coordinates:   coords,
		Player:        playerName(r),
		Activity:      activity(r),
		FleetSize:     fleetSize(r),
		EstimatedLoot: estimateLoot(r.Text),
	}
	t.Score = Score(t)
	return t, true
}

func playerName(r browser.Row) string {
	if name := strings.TrimSpace(r.ProbeText(ProbePlayer)); name != "" {
		return name
	}
	return "Unknown"
}

func activity(r browser.Row) model.Activity {
	if r.Has(ProbeInactive) {
		return model.ActivityInactive
	}
	txt := strings.ToLower(r.Text)
	for _, w := range []string{"inactive", "urlaub", "vacation"} {
		if strings.Contains(txt, w) {
			return model.ActivityInactive
		}
	}
	return model.ActivityActive
}

func fleetSize(r browser.Row) model.FleetSize {
	n := r.Probes[ProbeFleet].Count
	switch {
	case n == 0:
		return model.FleetSmall
	case n < 3:
		return model.FleetMedium
	default:
		return model.FleetLarge
	}
}

// estimateLoot takes the largest number under 500 in the row as a rough
// planet size hint and scales it.
func estimateLoot(text string) int64 {
	best := -1
	for _, s := range digitRuns.FindAllString(text, -1) {
		n, err := strconv.Atoi(s)
		if err != nil || n >= 500 {
			continue
		}
		best = max(best, n)
	}
	if best < 0 {
		return defaultLoot
	}
	return int64(best) * 100
}

// Score rates how attractive a target is. Inactive players with small fleets
// and large estimated stock score highest; the result is never negative.
func Score(t model.RaidTarget) float64 {
	score := 0.0
	switch t.Activity {
	case model.ActivityInactive:
		score += 50
	case model.ActivityActive:
		score -= 20
	}
	score += min(float64(t.EstimatedLoot)/1000, 30)
	switch t.FleetSize {
	case model.FleetSmall:
		score += 20
	case model.FleetLarge:
		score -= 30
	}
	return max(0, score)
}

// Rank sorts targets by descending score and keeps at most limit.
func Rank(targets []model.RaidTarget, limit int) []model.RaidTarget {
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Score > targets[j].Score
	})
	if limit > 0 && len(targets) > limit {
		targets = targets[:limit]
	}
	return targets
}
