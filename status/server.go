package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nstehr/ogbot/model"
)

const (
	defaultHistory = 20
	maxHistory     = 500
)

// History supplies past outcomes for /history; the journal implements it.
type History interface {
	Recent(ctx context.Context, n int) ([]model.CycleOutcome, error)
}

// NewRouter exposes the tracker. A nil history leaves /history out.
func NewRouter(t *Tracker, h History) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := t.Snapshot()
		if !ok {
			http.Error(w, "no cycle completed yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, snap)
	}).Methods("GET")

	r.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, t.Events())
	}).Methods("GET")

	if h != nil {
		r.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
			n := defaultHistory
			if raw := r.URL.Query().Get("n"); raw != "" {
				v, err := strconv.Atoi(raw)
				if err != nil || v <= 0 {
					http.Error(w, "n must be a positive integer", http.StatusBadRequest)
					return
				}
				n = min(v, maxHistory)
			}
			outs, err := h.Recent(r.Context(), n)
			if err != nil {
				slog.Error("history query failed", "error", err)
				http.Error(w, "history unavailable", http.StatusInternalServerError)
				return
			}
			views := make([]HistoryEntry, 0, len(outs))
			for _, o := range outs {
				views = append(views, historyEntry(o))
			}
			writeJSON(w, views)
		}).Methods("GET")
	}
	return r
}

// HistoryEntry is one journal row as served by /history.
type HistoryEntry struct {
	Cycle     int                `json:"cycle"`
	CycleID   string             `json:"cycleId"`
	StartedAt time.Time          `json:"startedAt"`
	Duration  string             `json:"duration"`
	Succeeded bool               `json:"succeeded"`
	Error     string             `json:"error,omitempty"`
	Status    model.EmpireStatus `json:"status"`
	Phases    []PhaseView        `json:"phases"`
	Delay     string             `json:"delay"`
}

func historyEntry(o model.CycleOutcome) HistoryEntry {
	e := HistoryEntry{
		Cycle:     o.Number,
		CycleID:   o.ID,
		StartedAt: o.StartedAt,
		Duration:  o.Duration.String(),
		Succeeded: o.Succeeded,
		Error:     errText(o.Err),
		Status:    o.Status,
		Delay:     o.Delay.String(),
		Phases:    make([]PhaseView, 0, len(o.Phases)),
	}
	for _, p := range o.Phases {
		e.Phases = append(e.Phases, PhaseView{Phase: p.Phase, Ran: p.Ran, Acted: p.Acted, Error: errText(p.Err)})
	}
	return e
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// Serve runs the HTTP server on addr until ctx ends, then shuts it down.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("status server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
