// Package build starts construction of the next building on the planet.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/model"
	"github.com/nstehr/ogbot/rules"
)

var (
	navChain = []browser.Selector{
		browser.XPath(`//a[contains(@href, 'component=supplies')]`),
		browser.XPath(`//a[contains(@href, 'component=buildings')]`),
		browser.XPath(`//a[contains(@href, 'buildings')]`),
		browser.XPath(`//span[contains(text(), 'Gebäude')]/parent::a`),
		browser.CSS("#buildings"),
		browser.CSS(".buildings"),
	}
	// buttonQueries find build buttons; every match is a buildable candidate.
	buttonQueries = []string{
		".build-it",
		".fastBuild",
		"a[class*='build_link']",
		"button[class*='build']",
	}
	confirmChain = []browser.Selector{
		browser.XPath(`//input[@value='Bauen']`),
		browser.XPath(`//button[contains(text(), 'Bauen')]`),
		browser.XPath(`//a[contains(text(), 'Bauen')]`),
		browser.XPath(`//input[contains(@value, 'Build')]`),
		browser.CSS(".build_submit"),
		browser.CSS(".confirm"),
	}
)

// Candidate is a build button found on the page.
type Candidate struct {
	Query string
	Index int
	Name  string
}

// Phase picks a building with the rule engine and starts it.
type Phase struct {
	Page   browser.Page
	Engine *rules.Engine
}

func NewPhase(p browser.Page, engine *rules.Engine) *Phase {
	return &Phase{Page: p, Engine: engine}
}

func (b *Phase) Name() model.PhaseName { return model.PhaseBuild }

// Run builds the rule engine's pick if it is offered, otherwise the first
// buildable item. No build button at all means nothing can be built now.
func (b *Phase) Run(ctx context.Context, st model.EmpireStatus) (bool, error) {
	res := st.Resources
	want, err := rules.NextBuilding(b.Engine, res)
	if err != nil {
		return false, fmt.Errorf("choose building: %w", err)
	}
	slog.Info("target building", "building", want, "metal", res.Metal, "crystal", res.Crystal, "deuterium", res.Deuterium)

	if _, err := browser.ClickFirst(ctx, b.Page, navChain); err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			return false, fmt.Errorf("open buildings: %w", err)
		}
		// Overview pages carry build buttons too.
		slog.Warn("could not find buildings navigation, trying current page")
	}

	cands, err := b.Candidates(ctx)
	if err != nil {
		return false, err
	}
	if len(cands) == 0 {
		slog.Info("no buildings available to build")
		return false, nil
	}

	pick, ok := Match(cands, want)
	if !ok {
		pick = cands[0]
		slog.Info("target not available, building first offered", "target", want, "building", pick.Name)
	}
	return true, b.start(ctx, pick)
}

// Candidates lists every build button on the page across all known button
// styles.
func (b *Phase) Candidates(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	for _, q := range buttonQueries {
		rows, err := b.Page.Rows(ctx, q)
		if err != nil && !errors.Is(err, browser.ErrNotFound) {
			return nil, fmt.Errorf("read build buttons %s: %w", q, err)
		}
		for _, r := range rows {
			out = append(out, Candidate{Query: q, Index: r.Index, Name: candidateName(r)})
		}
	}
	return out, nil
}

func candidateName(r browser.Row) string {
	for _, s := range []string{r.Attr("title"), r.Attr("aria-label"), r.Attr("data-technology"), r.Text} {
		if s = strings.TrimSpace(s); len(s) > 2 {
			return s
		}
	}
	return "Unknown Building"
}

// Match returns the first candidate whose name carries one of the labels
// for key.
func Match(cands []Candidate, key model.BuildingKey) (Candidate, bool) {
	for _, c := range cands {
		name := strings.ToLower(c.Name)
		for _, label := range model.BuildingNames[key] {
			if strings.Contains(name, strings.ToLower(label)) {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

func (b *Phase) start(ctx context.Context, c Candidate) error {
	slog.Info("starting construction", "building", c.Name)
	if err := b.Page.ClickRow(ctx, c.Query, c.Index, ""); err != nil {
		return fmt.Errorf("click build %s: %w", c.Name, err)
	}
	if _, err := browser.ClickFirst(ctx, b.Page, confirmChain); err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			return fmt.Errorf("confirm build %s: %w", c.Name, err)
		}
		// No dialog: the button itself started construction.
		slog.Info("construction initiated", "building", c.Name)
		return nil
	}
	slog.Info("construction confirmed", "building", c.Name)
	return nil
}
