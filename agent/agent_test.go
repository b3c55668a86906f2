package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nstehr/ogbot/model"
)

type fakeLocator struct {
	found bool
	err   error
}

func (f fakeLocator) Locate(ctx context.Context) (bool, error) { return f.found, f.err }

type fakeObserver struct {
	res         model.ResourceSnapshot
	colonies    int
	resErr      error
	colonyErr   error
	resourceHit int
}

func (f *fakeObserver) Resources(ctx context.Context) (model.ResourceSnapshot, error) {
	f.resourceHit++
	return f.res, f.resErr
}

func (f *fakeObserver) Colonies(ctx context.Context) (int, error) { return f.colonies, f.colonyErr }

type fakePhase struct {
	name   model.PhaseName
	acted  bool
	err    error
	panics bool
	calls  int
	ctxErr error
	got    model.EmpireStatus
}

func (f *fakePhase) Name() model.PhaseName { return f.name }

func (f *fakePhase) Run(ctx context.Context, st model.EmpireStatus) (bool, error) {
	f.calls++
	f.ctxErr = ctx.Err()
	f.got = st
	if f.panics {
		panic("selector exploded")
	}
	return f.acted, f.err
}

type memRecorder struct {
	mu   sync.Mutex
	outs []model.CycleOutcome
	err  error
}

func (m *memRecorder) Record(ctx context.Context, out model.CycleOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outs = append(m.outs, out)
	return m.err
}

func newPhases() (*fakePhase, *fakePhase, *fakePhase) {
	return &fakePhase{name: model.PhaseBuild}, &fakePhase{name: model.PhaseRaid}, &fakePhase{name: model.PhaseColonize}
}

func TestRunCycle_AllPhasesReady(t *testing.T) {
	build, raid, colonize := newPhases()
	obs := &fakeObserver{res: model.ResourceSnapshot{Metal: 50000, Crystal: 25000, Deuterium: 10000}, colonies: 1}
	c := New(fakeLocator{found: true}, obs, []Phase{build, raid, colonize}, Options{})

	out := c.RunCycle(context.Background())
	if !out.Succeeded || out.Err != nil {
		t.Fatalf("cycle failed: %v", out.Err)
	}
	if !out.Status.ReadyForBuilding || !out.Status.ReadyForRaids || !out.Status.ReadyForColonization {
		t.Errorf("status = %+v, want all ready", out.Status)
	}
	if out.Delay != 180*time.Second {
		t.Errorf("Delay = %v, want 180s", out.Delay)
	}
	for _, p := range []*fakePhase{build, raid, colonize} {
		if p.calls != 1 {
			t.Errorf("%s phase called %d times, want 1", p.name, p.calls)
		}
	}
	if colonize.got.Resources != obs.res || colonize.got.Colonies != obs.colonies {
		t.Errorf("colonize phase got %+v, want observed status", colonize.got)
	}
	if out.Number != 1 || out.ID == "" {
		t.Errorf("outcome identity = %d/%q", out.Number, out.ID)
	}
}

func TestRunCycle_NothingReady(t *testing.T) {
	build, raid, colonize := newPhases()
	obs := &fakeObserver{res: model.ResourceSnapshot{Metal: 100, Crystal: 50}}
	c := New(fakeLocator{found: true}, obs, []Phase{build, raid, colonize}, Options{})

	out := c.RunCycle(context.Background())
	if !out.Succeeded {
		t.Fatalf("cycle failed: %v", out.Err)
	}
	if build.calls+raid.calls+colonize.calls != 0 {
		t.Error("no phase should run when nothing is ready")
	}
	if out.Delay != 600*time.Second {
		t.Errorf("Delay = %v, want 600s", out.Delay)
	}
	for _, r := range out.Phases {
		if r.Ran {
			t.Errorf("phase %s marked as ran", r.Phase)
		}
	}
}

func TestRunCycle_Unreachable(t *testing.T) {
	tests := []struct {
		name string
		loc  fakeLocator
	}{
		{"no tab", fakeLocator{found: false}},
		{"locate error", fakeLocator{err: errors.New("websocket closed")}},
	}
	for _, tc := range tests {
		build, raid, colonize := newPhases()
		obs := &fakeObserver{res: model.ResourceSnapshot{Metal: 90000, Crystal: 90000, Deuterium: 90000}}
		c := New(tc.loc, obs, []Phase{build, raid, colonize}, Options{})

		out := c.RunCycle(context.Background())
		if out.Succeeded {
			t.Errorf("%s: cycle succeeded, want failure", tc.name)
		}
		if !errors.Is(out.Err, ErrUnreachable) {
			t.Errorf("%s: err = %v, want ErrUnreachable", tc.name, out.Err)
		}
		if obs.resourceHit != 0 || build.calls+raid.calls+colonize.calls != 0 {
			t.Errorf("%s: nothing should run after locate fails", tc.name)
		}
		if out.Delay != 300*time.Second {
			t.Errorf("%s: Delay = %v, want 300s", tc.name, out.Delay)
		}
	}
}

func TestRunCycle_ObservationFailure(t *testing.T) {
	tests := []struct {
		name string
		obs  *fakeObserver
	}{
		{"resources", &fakeObserver{resErr: errors.New("no resource bar")}},
		{"colonies", &fakeObserver{res: model.ResourceSnapshot{Metal: 5000, Crystal: 5000}, colonyErr: errors.New("planet list gone")}},
		{"already wrapped", &fakeObserver{resErr: ErrObservation}},
	}
	for _, tc := range tests {
		build, raid, colonize := newPhases()
		c := New(fakeLocator{found: true}, tc.obs, []Phase{build, raid, colonize}, Options{})

		out := c.RunCycle(context.Background())
		if out.Succeeded || !errors.Is(out.Err, ErrObservation) {
			t.Errorf("%s: outcome = %v/%v, want ErrObservation failure", tc.name, out.Succeeded, out.Err)
		}
		if build.calls+raid.calls+colonize.calls != 0 {
			t.Errorf("%s: phases ran after observation failure", tc.name)
		}
		if out.Delay != RetryDelay {
			t.Errorf("%s: Delay = %v, want %v", tc.name, out.Delay, RetryDelay)
		}
	}
}

func TestRunCycle_RaidFailureDoesNotBlockColonize(t *testing.T) {
	build, raid, colonize := newPhases()
	raid.err = errors.New("send button missing")
	colonize.acted = true
	obs := &fakeObserver{res: model.ResourceSnapshot{Metal: 60000, Crystal: 30000, Deuterium: 12000}}
	c := New(fakeLocator{found: true}, obs, []Phase{build, raid, colonize}, Options{})

	out := c.RunCycle(context.Background())
	if !out.Succeeded {
		t.Fatalf("phase failure must not fail the cycle: %v", out.Err)
	}
	if colonize.calls != 1 {
		t.Fatalf("colonize ran %d times, want 1", colonize.calls)
	}
	r, ok := out.Phase(model.PhaseRaid)
	if !ok || !r.Ran {
		t.Fatalf("raid result = %+v", r)
	}
	var pe *PhaseError
	if !errors.As(r.Err, &pe) || pe.Phase != model.PhaseRaid {
		t.Errorf("raid err = %v, want *PhaseError for raid", r.Err)
	}
	if cr, _ := out.Phase(model.PhaseColonize); !cr.Acted || cr.Err != nil {
		t.Errorf("colonize result = %+v", cr)
	}
	if out.Delay != 180*time.Second {
		t.Errorf("Delay = %v, want 180s", out.Delay)
	}
}

func TestRunCycle_PhasePanicContained(t *testing.T) {
	build, raid, colonize := newPhases()
	build.panics = true
	obs := &fakeObserver{res: model.ResourceSnapshot{Metal: 2000, Crystal: 1000}}
	c := New(fakeLocator{found: true}, obs, []Phase{build, raid, colonize}, Options{})

	out := c.RunCycle(context.Background())
	if !out.Succeeded {
		t.Fatal("panic in a phase must not fail the cycle")
	}
	br, _ := out.Phase(model.PhaseBuild)
	var pe *PhaseError
	if !errors.As(br.Err, &pe) {
		t.Errorf("build err = %v, want *PhaseError", br.Err)
	}
	if raid.calls != 1 {
		t.Errorf("raid ran %d times after build panic, want 1", raid.calls)
	}
}

func TestRunCycle_PhasesNotPreempted(t *testing.T) {
	build, raid, colonize := newPhases()
	obs := &fakeObserver{res: model.ResourceSnapshot{Metal: 2000, Crystal: 1000}}
	c := New(fakeLocator{found: true}, obs, []Phase{build, raid, colonize}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := c.RunCycle(ctx)
	if !out.Succeeded {
		t.Fatalf("cycle failed: %v", out.Err)
	}
	if build.ctxErr != nil || raid.ctxErr != nil {
		t.Error("phases should see a context detached from the stop signal")
	}
}

func TestRun_StopsAndRecords(t *testing.T) {
	build, raid, colonize := newPhases()
	obs := &fakeObserver{res: model.ResourceSnapshot{Metal: 100}}
	c := New(fakeLocator{found: true}, obs, []Phase{build, raid, colonize}, Options{SleepSlice: 5 * time.Millisecond})
	rec := &memRecorder{err: errors.New("disk full")}
	c.AddRecorder(rec)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil on graceful stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop within one sleep slice of cancellation")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.outs) != 1 {
		t.Errorf("recorded %d outcomes, want 1", len(rec.outs))
	}
}

func TestRun_ExitsBeforeFirstCycleWhenStopped(t *testing.T) {
	obs := &fakeObserver{}
	c := New(fakeLocator{found: true}, obs, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if obs.resourceHit != 0 {
		t.Error("no cycle should start after stop")
	}
}

func TestJitter(t *testing.T) {
	c := New(nil, nil, nil, Options{})
	if c.jitter() != 0 {
		t.Error("zero RetryJitter should add nothing")
	}
	c.opts.RetryJitter = 10 * time.Second
	for i := 0; i < 50; i++ {
		if j := c.jitter(); j < 0 || j >= 10*time.Second {
			t.Fatalf("jitter = %v, want [0, 10s)", j)
		}
	}
}
