package build

import (
	"context"
	"errors"
	"testing"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/browser/browsertest"
	"github.com/nstehr/ogbot/model"
	"github.com/nstehr/ogbot/rules"
)

func newPhase(t *testing.T, p *browsertest.Page) *Phase {
	t.Helper()
	e, err := rules.NewBuildingEngine(rules.DefaultDoctrine())
	if err != nil {
		t.Fatalf("NewBuildingEngine: %v", err)
	}
	return NewPhase(p, e)
}

func titled(title string) browser.Row {
	return browser.Row{Attrs: map[string]string{"title": title}}
}

// Low metal and crystal make the balanced rules pick the metal mine.
var poor = model.ComputeStatus(model.ResourceSnapshot{Metal: 100, Crystal: 100, Deuterium: 1000}, 0)

func TestRunBuildsTargetWhenOffered(t *testing.T) {
	p := browsertest.New().
		Add(browser.CSS("#buildings"), browsertest.Element{}).
		Add(browser.CSS(".confirm"), browsertest.Element{}).
		AddRows(".build-it", titled("Kristallmine"), titled("Metallmine Stufe 3"))

	acted, err := newPhase(t, p).Run(context.Background(), poor)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !acted {
		t.Fatal("Run acted = false, want true")
	}
	want := []string{"#buildings", ".build-it[1] ", ".confirm"}
	if len(p.Clicks) != len(want) {
		t.Fatalf("clicks = %v, want %v", p.Clicks, want)
	}
	for i := range want {
		if p.Clicks[i] != want[i] {
			t.Errorf("click[%d] = %q, want %q", i, p.Clicks[i], want[i])
		}
	}
}

func TestRunFallsBackToFirstBuildable(t *testing.T) {
	p := browsertest.New().
		AddRows(".fastBuild", titled("Solarkraftwerk"), titled("Raumschiffwerft"))

	acted, err := newPhase(t, p).Run(context.Background(), poor)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !acted {
		t.Fatal("Run acted = false, want true")
	}
	if !p.Clicked(".fastBuild[0] ") {
		t.Errorf("clicks = %v, want first fastBuild button", p.Clicks)
	}
}

func TestRunNothingBuildable(t *testing.T) {
	p := browsertest.New().Add(browser.CSS("#buildings"), browsertest.Element{})

	acted, err := newPhase(t, p).Run(context.Background(), poor)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if acted {
		t.Error("Run acted = true, want false")
	}
}

func TestRunBrokenPageIsAnError(t *testing.T) {
	timeout := errors.New("cdp: context deadline exceeded")
	for _, q := range []string{"#buildings", ".fastBuild"} {
		t.Run(q, func(t *testing.T) {
			p := browsertest.New().
				Add(browser.CSS("#buildings"), browsertest.Element{}).
				AddRows(".build-it", titled("Metallmine"))
			p.Fail[q] = timeout

			acted, err := newPhase(t, p).Run(context.Background(), poor)
			if !errors.Is(err, timeout) {
				t.Errorf("Run err = %v, want %v", err, timeout)
			}
			if acted {
				t.Error("Run acted = true, want false")
			}
		})
	}
}

func TestMatch(t *testing.T) {
	cands := []Candidate{
		{Query: ".build-it", Index: 0, Name: "Solar Plant (Level 4)"},
		{Query: ".build-it", Index: 1, Name: "Crystal Mine (Level 2)"},
		{Query: ".build-it", Index: 2, Name: "Deuteriumsynthetisierer"},
	}
	tests := []struct {
		key  model.BuildingKey
		idx  int
		want bool
	}{
		{model.CrystalMine, 1, true},
		{model.DeuteriumSynthesizer, 2, true},
		{model.SolarPlant, 0, true},
		{model.MetalMine, 0, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got, ok := Match(cands, tt.key)
			if ok != tt.want {
				t.Fatalf("Match ok = %v, want %v", ok, tt.want)
			}
			if ok && got.Index != tt.idx {
				t.Errorf("Match index = %d, want %d", got.Index, tt.idx)
			}
		})
	}
}

func TestCandidateName(t *testing.T) {
	tests := []struct {
		name string
		row  browser.Row
		want string
	}{
		{"title", browser.Row{Attrs: map[string]string{"title": "Metallmine", "aria-label": "x"}}, "Metallmine"},
		{"aria", browser.Row{Attrs: map[string]string{"aria-label": "Shipyard"}}, "Shipyard"},
		{"text", browser.Row{Text: "  Roboterfabrik "}, "Roboterfabrik"},
		{"too short", browser.Row{Text: "+"}, "Unknown Building"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := candidateName(tt.row); got != tt.want {
				t.Errorf("candidateName = %q, want %q", got, tt.want)
			}
		})
	}
}
