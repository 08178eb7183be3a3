package catiad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/bridge"
	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/internal/testutil/catiafake"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
)

const docPath = `C:\models\bracket.CATPart`

func testModelSpec() config.ModelSpec {
	return config.ModelSpec{
		Path: docPath,
		Inputs: map[string]config.VarSpec{
			"PadHeight": {Name: "pad_height"},
		},
		Outputs: map[string]config.VarSpec{
			"Mass": {Name: "mass"},
		},
	}
}

// testDaemon bundles a fake application with a running executor
type testDaemon struct {
	app   *catiafake.App
	root  *catiafake.Root
	store *EvalStore
	ex    *Executor
	stop  func()
}

func startDaemon(t *testing.T, mutate func(*ExecutorOptions)) *testDaemon {
	t.Helper()

	app := catiafake.NewApp()
	doc := app.AddDocument(docPath, catiafake.Part,
		catiafake.Dim("PadHeight", 50, "mm", "LENGTH"),
		catiafake.Dim("Mass", 12.5, "kg", "MASS"),
	)

	store := NewEvalStore()
	opts := ExecutorOptions{
		Store:   store,
		Session: config.SessionConfig{ProgID: catia.DefaultProgID, KeepaliveInterval: "20ms"},
		Model:   testModelSpec(),
		Dial: func(ctx context.Context) (*catia.Session, error) {
			return catia.NewSession(app.Object(), ""), nil
		},
	}
	if mutate != nil {
		mutate(&opts)
	}

	ex := NewExecutor(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ex.Run(ctx); err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	}()
	stop := func() {
		cancel()
		<-done
	}
	t.Cleanup(stop)

	waitFor(t, func() bool { return ex.Model() != nil })
	return &testDaemon{app: app, root: doc.Root(), store: store, ex: ex, stop: stop}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitForStatus(t *testing.T, store *EvalStore, id string, status models.EvalStatus) *models.Evaluation {
	t.Helper()
	var ev *models.Evaluation
	waitFor(t, func() bool {
		got, ok := store.Get(id)
		if !ok {
			return false
		}
		ev = got
		return got.Status == status
	})
	return ev
}

func TestExecutorRunsEvaluation(t *testing.T) {
	d := startDaemon(t, nil)
	d.root.OnUpdate = func(r *catiafake.Root) error {
		r.Param("Mass").SetRaw(r.Param("PadHeight").Float() * 0.25)
		return nil
	}

	ev, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(80)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if ev.Status != models.EvalStatusPending {
		t.Fatalf("expected pending record, got %s", ev.Status)
	}

	done := waitForStatus(t, d.store, ev.ID, models.EvalStatusCompleted)
	if done.Outputs["mass"] != models.RealValue(20) {
		t.Fatalf("expected mass 20, got %v", done.Outputs["mass"])
	}
	if done.DurationMS < 0 {
		t.Fatalf("expected non-negative duration")
	}
	if d.root.Updates != 1 {
		t.Fatalf("expected 1 update, got %d", d.root.Updates)
	}
}

func TestExecutorSerializesEvaluations(t *testing.T) {
	d := startDaemon(t, nil)

	var ids []string
	for i := 0; i < 3; i++ {
		ev, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(float64(60 + i))})
		if err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		ids = append(ids, ev.ID)
	}

	for _, id := range ids {
		waitForStatus(t, d.store, id, models.EvalStatusCompleted)
	}
	if d.root.Updates != 3 {
		t.Fatalf("expected 3 updates, got %d", d.root.Updates)
	}
}

func TestExecutorEvaluationFails(t *testing.T) {
	d := startDaemon(t, nil)
	d.root.UpdateErr = errors.New("update diverged")

	ev, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(80)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	failed := waitForStatus(t, d.store, ev.ID, models.EvalStatusFailed)
	if !strings.Contains(failed.Error, "update model") {
		t.Fatalf("expected update error recorded, got %q", failed.Error)
	}

	// The executor keeps serving after a failed evaluation
	d.root.UpdateErr = nil
	next, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(70)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, next.ID, models.EvalStatusCompleted)
}

func TestExecutorSubmitUnknownVariable(t *testing.T) {
	d := startDaemon(t, nil)

	_, err := d.ex.Submit(map[string]models.Value{"bogus": models.RealValue(1)})
	var unknown *bridge.UnknownVariableError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownVariableError, got %v", err)
	}
	if unknown.Name != "bogus" {
		t.Fatalf("expected variable bogus, got %s", unknown.Name)
	}
}

func TestExecutorSubmitBeforeReady(t *testing.T) {
	ex := NewExecutor(ExecutorOptions{Store: NewEvalStore(), Model: testModelSpec()})

	_, err := ex.Submit(map[string]models.Value{"pad_height": models.RealValue(1)})
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestExecutorCancelQueued(t *testing.T) {
	d := startDaemon(t, nil)
	gate := make(chan struct{})
	d.root.OnUpdate = func(*catiafake.Root) error {
		<-gate
		return nil
	}

	first, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(60)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, first.ID, models.EvalStatusRunning)

	second, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(70)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	cancelled, err := d.ex.Cancel(second.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != models.EvalStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	close(gate)
	waitForStatus(t, d.store, first.ID, models.EvalStatusCompleted)

	// The cancelled evaluation never reached the model
	if d.root.Updates != 1 {
		t.Fatalf("expected 1 update, got %d", d.root.Updates)
	}
}

func TestExecutorCancelRunning(t *testing.T) {
	d := startDaemon(t, nil)
	gate := make(chan struct{})
	d.root.OnUpdate = func(*catiafake.Root) error {
		<-gate
		return nil
	}

	ev, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(60)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, ev.ID, models.EvalStatusRunning)

	cancelled, err := d.ex.Cancel(ev.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != models.EvalStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	close(gate)

	// The loop stays healthy for the next evaluation
	next, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(70)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, next.ID, models.EvalStatusCompleted)

	got, _ := d.store.Get(ev.ID)
	if got.Status != models.EvalStatusCancelled {
		t.Fatalf("expected evaluation to stay cancelled, got %s", got.Status)
	}
}

func TestExecutorCancelErrors(t *testing.T) {
	d := startDaemon(t, nil)

	if _, err := d.ex.Cancel(""); !errors.Is(err, ErrEvalIDMissing) {
		t.Fatalf("expected ErrEvalIDMissing, got %v", err)
	}
	if _, err := d.ex.Cancel("eval-nope"); !errors.Is(err, ErrEvalNotFound) {
		t.Fatalf("expected ErrEvalNotFound, got %v", err)
	}

	ev, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(60)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, ev.ID, models.EvalStatusCompleted)

	if _, err := d.ex.Cancel(ev.ID); !errors.Is(err, ErrEvalTerminal) {
		t.Fatalf("expected ErrEvalTerminal, got %v", err)
	}
}

func TestExecutorReload(t *testing.T) {
	d := startDaemon(t, nil)

	before := d.ex.Model()
	if before.Inputs[0].Default != models.RealValue(50) {
		t.Fatalf("expected default 50 before reload, got %v", before.Inputs[0].Default)
	}

	d.root.Param("PadHeight").SetRaw(70.0)
	if err := d.ex.Reload(context.Background(), nil); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	after := d.ex.Model()
	if after.Inputs[0].Default != models.RealValue(70) {
		t.Fatalf("expected default 70 after reload, got %v", after.Inputs[0].Default)
	}
	if after.Path != docPath || after.Root != string(catia.RootPart) {
		t.Fatalf("unexpected model info after reload: %+v", after)
	}
}

func TestExecutorReloadWithSpec(t *testing.T) {
	d := startDaemon(t, nil)

	spec := testModelSpec()
	spec.Inputs = map[string]config.VarSpec{"PadHeight": {Name: "height"}}
	if err := d.ex.Reload(context.Background(), &spec); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if got := d.ex.Model().Inputs[0].Name; got != "height" {
		t.Fatalf("expected renamed input after reload, got %s", got)
	}

	// A spec that fails setup leaves the previous one in service
	bad := testModelSpec()
	bad.Inputs = map[string]config.VarSpec{"Missing": {Name: "missing"}}
	err := d.ex.Reload(context.Background(), &bad)
	var notFound *bridge.ParameterNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ParameterNotFoundError, got %v", err)
	}
	if got := d.ex.Model().Inputs[0].Name; got != "height" {
		t.Fatalf("expected previous mapping kept after failed reload, got %s", got)
	}

	if err := d.ex.Reload(context.Background(), nil); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if got := d.ex.Model().Inputs[0].Name; got != "height" {
		t.Fatalf("expected committed spec reused, got %s", got)
	}
}

func TestExecutorShutdownCancelsQueued(t *testing.T) {
	d := startDaemon(t, nil)
	gate := make(chan struct{})
	d.root.OnUpdate = func(*catiafake.Root) error {
		<-gate
		return nil
	}

	first, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(60)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, first.ID, models.EvalStatusRunning)

	second, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(70)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		d.stop()
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)
	<-stopped

	got, _ := d.store.Get(first.ID)
	if got.Status != models.EvalStatusCancelled {
		t.Fatalf("expected running evaluation cancelled on shutdown, got %s", got.Status)
	}
	got, _ = d.store.Get(second.ID)
	if got.Status != models.EvalStatusCancelled {
		t.Fatalf("expected queued evaluation cancelled on shutdown, got %s", got.Status)
	}
}

func TestExecutorQueueFull(t *testing.T) {
	d := startDaemon(t, nil)
	gate := make(chan struct{})
	d.root.OnUpdate = func(*catiafake.Root) error {
		<-gate
		return nil
	}

	running, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(60)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, running.ID, models.EvalStatusRunning)

	for i := 0; i < evalQueueSize; i++ {
		if _, err := d.ex.Submit(nil); err != nil {
			t.Fatalf("Submit %d error: %v", i, err)
		}
	}

	overflow, err := d.ex.Submit(nil)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if overflow != nil {
		t.Fatalf("expected nil record on overflow")
	}

	failed := d.store.List(0, 0, models.EvalStatusFailed)
	if len(failed) != 1 {
		t.Fatalf("expected the overflow evaluation marked failed, got %d", len(failed))
	}

	close(gate)
}

func TestExecutorArchivesAndNotifies(t *testing.T) {
	var notified atomic.Int32
	callback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer callback.Close()

	arch, err := OpenArchive(filepath.Join(t.TempDir(), "evals.db"))
	if err != nil {
		t.Fatalf("OpenArchive error: %v", err)
	}
	defer arch.Close()

	notifier, err := NewNotifier(&config.CallbackConfig{URL: callback.URL, MaxRetries: 1})
	if err != nil {
		t.Fatalf("NewNotifier error: %v", err)
	}
	notifier.baseDelay = time.Millisecond

	d := startDaemon(t, func(opts *ExecutorOptions) {
		opts.Archive = arch
		opts.Notifier = notifier
	})

	ev, err := d.ex.Submit(map[string]models.Value{"pad_height": models.RealValue(80)})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	waitForStatus(t, d.store, ev.ID, models.EvalStatusCompleted)

	waitFor(t, func() bool { return notified.Load() == 1 })

	archived, err := arch.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(archived) != 1 || archived[0].ID != ev.ID {
		t.Fatalf("expected evaluation archived, got %v", archived)
	}
	if archived[0].Status != models.EvalStatusCompleted {
		t.Fatalf("expected archived status completed, got %s", archived[0].Status)
	}
}

func TestExecutorRunDialFails(t *testing.T) {
	ex := NewExecutor(ExecutorOptions{
		Store: NewEvalStore(),
		Model: testModelSpec(),
		Dial: func(ctx context.Context) (*catia.Session, error) {
			return nil, fmt.Errorf("no application registered")
		},
	})

	err := ex.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "dial application") {
		t.Fatalf("expected dial error, got %v", err)
	}
}

func TestExecutorRunSetupFails(t *testing.T) {
	app := catiafake.NewApp()
	app.AddDocument(docPath, catiafake.Part,
		catiafake.Dim("PadHeight", 50, "mm", "LENGTH"),
	)

	// Mass is missing from the document
	ex := NewExecutor(ExecutorOptions{
		Store: NewEvalStore(),
		Model: testModelSpec(),
		Dial: func(ctx context.Context) (*catia.Session, error) {
			return catia.NewSession(app.Object(), ""), nil
		},
	})

	err := ex.Run(context.Background())
	var notFound *bridge.ParameterNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ParameterNotFoundError, got %v", err)
	}
	if ex.Model() != nil {
		t.Fatalf("expected no model info after failed setup")
	}
}

func TestExecutorHealthy(t *testing.T) {
	d := startDaemon(t, nil)

	if !d.ex.Healthy() {
		t.Fatalf("expected healthy executor after setup")
	}

	si := d.ex.Session()
	if si == nil {
		t.Fatalf("expected session info")
	}
	if si.ProgID != catia.DefaultProgID || !si.Attached || !si.Alive {
		t.Fatalf("unexpected session info: %+v", si)
	}
}
