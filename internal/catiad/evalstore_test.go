package catiad

import (
	"errors"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
)

func TestEvalStoreCreateAndGet(t *testing.T) {
	store := NewEvalStore()

	ev := store.Create(map[string]models.Value{"pad_height": models.RealValue(80)})
	if ev == nil {
		t.Fatalf("Create returned nil record")
	}
	if ev.ID == "" {
		t.Fatalf("expected generated evaluation id")
	}
	if !strings.HasPrefix(ev.ID, "eval-") {
		t.Fatalf("expected eval- id prefix, got %s", ev.ID)
	}
	if ev.Status != models.EvalStatusPending {
		t.Fatalf("expected status pending, got %s", ev.Status)
	}
	if ev.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	got, ok := store.Get(ev.ID)
	if !ok {
		t.Fatalf("expected evaluation to exist")
	}
	if got.ID != ev.ID {
		t.Fatalf("expected same evaluation id")
	}
	if got.Inputs["pad_height"] != models.RealValue(80) {
		t.Fatalf("expected inputs to be stored")
	}
}

func TestEvalStoreGetReturnsCopies(t *testing.T) {
	store := NewEvalStore()
	ev := store.Create(map[string]models.Value{"pad_height": models.RealValue(80)})

	got, _ := store.Get(ev.ID)
	got.Inputs["pad_height"] = models.RealValue(0)
	got.Status = models.EvalStatusFailed

	again, _ := store.Get(ev.ID)
	if again.Inputs["pad_height"] != models.RealValue(80) {
		t.Fatalf("mutating a returned record changed the stored inputs")
	}
	if again.Status != models.EvalStatusPending {
		t.Fatalf("mutating a returned record changed the stored status")
	}
}

func TestEvalStoreLifecycleTimestamps(t *testing.T) {
	store := NewEvalStore()
	ev := store.Create(nil)

	if !ev.StartedAt.IsZero() || !ev.FinishedAt.IsZero() {
		t.Fatalf("expected timestamps not set initially")
	}

	running, err := store.SetRunning(ev.ID)
	if err != nil {
		t.Fatalf("SetRunning error: %v", err)
	}
	if running.StartedAt.IsZero() {
		t.Fatalf("expected started_at set")
	}
	if !running.FinishedAt.IsZero() {
		t.Fatalf("did not expect finished_at set while running")
	}

	done, err := store.SetCompleted(ev.ID, map[string]models.Value{"mass": models.RealValue(12.5)})
	if err != nil {
		t.Fatalf("SetCompleted error: %v", err)
	}
	if done.FinishedAt.IsZero() {
		t.Fatalf("expected finished_at set")
	}
	if done.DurationMS < 0 {
		t.Fatalf("expected non-negative duration, got %f", done.DurationMS)
	}
	if done.Outputs["mass"] != models.RealValue(12.5) {
		t.Fatalf("expected outputs stored")
	}
}

func TestEvalStoreTerminalIsFinal(t *testing.T) {
	store := NewEvalStore()
	ev := store.Create(nil)

	if _, err := store.SetRunning(ev.ID); err != nil {
		t.Fatalf("SetRunning error: %v", err)
	}
	if _, err := store.SetFailed(ev.ID, "update diverged"); err != nil {
		t.Fatalf("SetFailed error: %v", err)
	}

	if _, err := store.SetCancelled(ev.ID); !errors.Is(err, ErrEvalTerminal) {
		t.Fatalf("expected ErrEvalTerminal, got %v", err)
	}
	if _, err := store.SetCompleted(ev.ID, nil); !errors.Is(err, ErrEvalTerminal) {
		t.Fatalf("expected ErrEvalTerminal, got %v", err)
	}

	got, _ := store.Get(ev.ID)
	if got.Status != models.EvalStatusFailed {
		t.Fatalf("expected status to stay failed, got %s", got.Status)
	}
	if got.Error != "update diverged" {
		t.Fatalf("expected error message stored, got %q", got.Error)
	}
}

func TestEvalStoreRunningRequiresPending(t *testing.T) {
	store := NewEvalStore()
	ev := store.Create(nil)

	if _, err := store.SetRunning(ev.ID); err != nil {
		t.Fatalf("SetRunning error: %v", err)
	}
	if _, err := store.SetRunning(ev.ID); err == nil {
		t.Fatalf("expected second SetRunning to fail")
	}
}

func TestEvalStoreCancelPending(t *testing.T) {
	store := NewEvalStore()
	ev := store.Create(nil)

	cancelled, err := store.SetCancelled(ev.ID)
	if err != nil {
		t.Fatalf("SetCancelled error: %v", err)
	}
	if cancelled.Status != models.EvalStatusCancelled {
		t.Fatalf("expected status cancelled, got %s", cancelled.Status)
	}
	if !cancelled.StartedAt.IsZero() {
		t.Fatalf("did not expect started_at on a never-started evaluation")
	}
	if cancelled.FinishedAt.IsZero() {
		t.Fatalf("expected finished_at set")
	}
	if cancelled.DurationMS != 0 {
		t.Fatalf("expected zero duration, got %f", cancelled.DurationMS)
	}
}

func TestEvalStoreNotFound(t *testing.T) {
	store := NewEvalStore()

	if _, ok := store.Get("eval-nope"); ok {
		t.Fatalf("expected missing evaluation")
	}
	if _, err := store.SetRunning("eval-nope"); !errors.Is(err, ErrEvalNotFound) {
		t.Fatalf("expected ErrEvalNotFound, got %v", err)
	}
}

func TestEvalStoreListNewestFirst(t *testing.T) {
	store := NewEvalStore()
	first := store.Create(nil)
	second := store.Create(nil)
	third := store.Create(nil)

	if _, err := store.SetRunning(second.ID); err != nil {
		t.Fatalf("SetRunning error: %v", err)
	}
	if _, err := store.SetCompleted(second.ID, nil); err != nil {
		t.Fatalf("SetCompleted error: %v", err)
	}

	all := store.List(0, 0, "")
	if len(all) != 3 {
		t.Fatalf("expected 3 evaluations, got %d", len(all))
	}
	if all[0].ID != third.ID || all[2].ID != first.ID {
		t.Fatalf("expected newest-first ordering")
	}

	limited := store.List(2, 0, "")
	if len(limited) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(limited))
	}

	offset := store.List(2, 1, "")
	if len(offset) != 2 || offset[0].ID != second.ID || offset[1].ID != first.ID {
		t.Fatalf("expected offset to skip the newest evaluation")
	}

	completed := store.List(0, 0, models.EvalStatusCompleted)
	if len(completed) != 1 || completed[0].ID != second.ID {
		t.Fatalf("expected only the completed evaluation")
	}
}

func TestEvalStoreStats(t *testing.T) {
	store := NewEvalStore()

	done := store.Create(nil)
	if _, err := store.SetRunning(done.ID); err != nil {
		t.Fatalf("SetRunning error: %v", err)
	}
	if _, err := store.SetCompleted(done.ID, nil); err != nil {
		t.Fatalf("SetCompleted error: %v", err)
	}

	failed := store.Create(nil)
	if _, err := store.SetRunning(failed.ID); err != nil {
		t.Fatalf("SetRunning error: %v", err)
	}
	if _, err := store.SetFailed(failed.ID, "boom"); err != nil {
		t.Fatalf("SetFailed error: %v", err)
	}

	store.Create(nil)

	st := store.Stats()
	if st.Total != 3 {
		t.Fatalf("expected total 3, got %d", st.Total)
	}
	if st.ByStatus["completed"] != 1 || st.ByStatus["failed"] != 1 || st.ByStatus["pending"] != 1 {
		t.Fatalf("unexpected status counts: %v", st.ByStatus)
	}
	if st.Duration.Count != 1 {
		t.Fatalf("expected 1 completed duration, got %d", st.Duration.Count)
	}
	if st.Duration.StdDev != 0 {
		t.Fatalf("expected zero stddev for a single duration, got %f", st.Duration.StdDev)
	}
}
