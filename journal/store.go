// Package journal keeps a SQLite history of cycle outcomes.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nstehr/ogbot/model"
)

// timeLayout keeps every fraction digit so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store provides SQLite-backed persistence for cycle outcomes. It implements
// the controller's Recorder.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases
	// shared.
	db.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// New returns a Store bound to an existing, migrated database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores one outcome with its phase results.
func (s *Store) Record(ctx context.Context, out model.CycleOutcome) error {
	if s == nil {
		return fmt.Errorf("record cycle: store is nil")
	}
	if s.db == nil {
		return fmt.Errorf("record cycle: db is nil")
	}
	if out.ID == "" {
		return fmt.Errorf("record cycle: id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record cycle: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	st := out.Status
	_, err = tx.ExecContext(ctx, `INSERT INTO cycles (id, number, started_at, duration_ms, succeeded, error,
		metal, crystal, deuterium, energy, colonies, ready_build, ready_raid, ready_colonize, delay_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.Number, out.StartedAt.UTC().Format(timeLayout), out.Duration.Milliseconds(),
		out.Succeeded, errText(out.Err),
		st.Resources.Metal, st.Resources.Crystal, st.Resources.Deuterium, st.Resources.Energy, st.Colonies,
		st.ReadyForBuilding, st.ReadyForRaids, st.ReadyForColonization, out.Delay.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record cycle: insert cycle: %w", err)
	}

	for i, p := range out.Phases {
		_, err = tx.ExecContext(ctx, `INSERT INTO phases (cycle_id, seq, phase, ran, acted, error) VALUES (?, ?, ?, ?, ?, ?)`,
			out.ID, i, string(p.Phase), p.Ran, p.Acted, errText(p.Err))
		if err != nil {
			return fmt.Errorf("record cycle: insert phase %s: %w", p.Phase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record cycle: commit: %w", err)
	}
	return nil
}

// Recent returns up to n outcomes, newest first. Stored error messages come
// back as plain errors.
func (s *Store) Recent(ctx context.Context, n int) ([]model.CycleOutcome, error) {
	if s == nil {
		return nil, fmt.Errorf("recent cycles: store is nil")
	}
	if s.db == nil {
		return nil, fmt.Errorf("recent cycles: db is nil")
	}
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, number, started_at, duration_ms, succeeded, error,
		metal, crystal, deuterium, energy, colonies, ready_build, ready_raid, ready_colonize, delay_ms
		FROM cycles ORDER BY started_at DESC, number DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent cycles: query: %w", err)
	}

	var outs []model.CycleOutcome
	for rows.Next() {
		var (
			o                   model.CycleOutcome
			startedAt           string
			durationMs, delayMs int64
			errMsg              sql.NullString
			res                 model.ResourceSnapshot
		)
		err := rows.Scan(&o.ID, &o.Number, &startedAt, &durationMs, &o.Succeeded, &errMsg,
			&res.Metal, &res.Crystal, &res.Deuterium, &res.Energy, &o.Status.Colonies,
			&o.Status.ReadyForBuilding, &o.Status.ReadyForRaids, &o.Status.ReadyForColonization, &delayMs)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("recent cycles: scan: %w", err)
		}
		o.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("recent cycles: parse started_at: %w", err)
		}
		o.Duration = time.Duration(durationMs) * time.Millisecond
		o.Delay = time.Duration(delayMs) * time.Millisecond
		o.Err = textErr(errMsg)
		o.Status.Resources = res
		o.Status.TotalResources = res.Total()
		outs = append(outs, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("recent cycles: iterate: %w", err)
	}
	rows.Close()

	// Phases are loaded after the cycle rows are closed; the pool holds a
	// single connection.
	for i := range outs {
		phases, err := s.phases(ctx, outs[i].ID)
		if err != nil {
			return nil, err
		}
		outs[i].Phases = phases
	}
	return outs, nil
}

func (s *Store) phases(ctx context.Context, cycleID string) ([]model.PhaseResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phase, ran, acted, error FROM phases WHERE cycle_id = ? ORDER BY seq`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("recent cycles: query phases: %w", err)
	}
	defer rows.Close()

	var out []model.PhaseResult
	for rows.Next() {
		var (
			p      model.PhaseResult
			name   string
			errMsg sql.NullString
		)
		if err := rows.Scan(&name, &p.Ran, &p.Acted, &errMsg); err != nil {
			return nil, fmt.Errorf("recent cycles: scan phase: %w", err)
		}
		p.Phase = model.PhaseName(name)
		p.Err = textErr(errMsg)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent cycles: iterate phases: %w", err)
	}
	return out, nil
}

// Summary aggregates the whole journal.
type Summary struct {
	Cycles int                     `json:"cycles"`
	Failed int                     `json:"failed"`
	Acted  map[model.PhaseName]int `json:"acted"`
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	if s == nil || s.db == nil {
		return Summary{}, fmt.Errorf("summary: store is nil")
	}
	sum := Summary{Acted: map[model.PhaseName]int{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN succeeded = 0 THEN 1 ELSE 0 END), 0) FROM cycles`,
	).Scan(&sum.Cycles, &sum.Failed)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: count cycles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT phase, SUM(acted) FROM phases GROUP BY phase`)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: query phases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return Summary{}, fmt.Errorf("summary: scan phase: %w", err)
		}
		sum.Acted[model.PhaseName(name)] = n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("summary: iterate phases: %w", err)
	}
	return sum, nil
}

func errText(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func textErr(s sql.NullString) error {
	if !s.Valid {
		return nil
	}
	return errors.New(s.String)
}
