package catiad

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	arch, err := OpenArchive(filepath.Join(t.TempDir(), "evals.db"))
	if err != nil {
		t.Fatalf("OpenArchive error: %v", err)
	}
	t.Cleanup(func() { arch.Close() })
	return arch
}

func TestArchiveSaveAndRecent(t *testing.T) {
	arch := openTestArchive(t)
	ctx := context.Background()

	older := &models.Evaluation{
		ID:         "eval-1",
		Status:     models.EvalStatusCompleted,
		Inputs:     map[string]models.Value{"pad_height": models.RealValue(80)},
		Outputs:    map[string]models.Value{"mass": models.RealValue(20)},
		CreatedAt:  time.UnixMilli(1000).UTC(),
		StartedAt:  time.UnixMilli(1100).UTC(),
		FinishedAt: time.UnixMilli(1400).UTC(),
		DurationMS: 300,
	}
	newer := &models.Evaluation{
		ID:         "eval-2",
		Status:     models.EvalStatusFailed,
		Inputs:     map[string]models.Value{"hole_count": models.IntValue(5)},
		Error:      "update failed",
		CreatedAt:  time.UnixMilli(2000).UTC(),
		FinishedAt: time.UnixMilli(2100).UTC(),
	}

	if err := arch.Save(ctx, older); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := arch.Save(ctx, newer); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := arch.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(got))
	}
	if got[0].ID != "eval-2" || got[1].ID != "eval-1" {
		t.Fatalf("expected newest-first ordering, got %s then %s", got[0].ID, got[1].ID)
	}

	first := got[1]
	if first.Status != models.EvalStatusCompleted {
		t.Errorf("expected status completed, got %s", first.Status)
	}
	if first.Inputs["pad_height"] != models.RealValue(80) {
		t.Errorf("inputs did not round-trip: %v", first.Inputs)
	}
	if first.Outputs["mass"] != models.RealValue(20) {
		t.Errorf("outputs did not round-trip: %v", first.Outputs)
	}
	if !first.CreatedAt.Equal(older.CreatedAt) || !first.FinishedAt.Equal(older.FinishedAt) {
		t.Errorf("timestamps did not round-trip")
	}
	if first.DurationMS != 300 {
		t.Errorf("expected duration 300, got %f", first.DurationMS)
	}

	second := got[0]
	if second.Error != "update failed" {
		t.Errorf("expected error message, got %q", second.Error)
	}
	if !second.StartedAt.IsZero() {
		t.Errorf("expected zero started_at for a never-started evaluation")
	}
	if second.Outputs != nil {
		t.Errorf("expected nil outputs, got %v", second.Outputs)
	}
}

func TestArchiveUpsert(t *testing.T) {
	arch := openTestArchive(t)
	ctx := context.Background()

	ev := &models.Evaluation{
		ID:        "eval-1",
		Status:    models.EvalStatusCancelled,
		CreatedAt: time.UnixMilli(1000).UTC(),
	}
	if err := arch.Save(ctx, ev); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	ev.Status = models.EvalStatusFailed
	ev.Error = "session lost"
	if err := arch.Save(ctx, ev); err != nil {
		t.Fatalf("second Save error: %v", err)
	}

	got, err := arch.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 evaluation after upsert, got %d", len(got))
	}
	if got[0].Status != models.EvalStatusFailed || got[0].Error != "session lost" {
		t.Fatalf("expected updated record, got %s %q", got[0].Status, got[0].Error)
	}
}

func TestArchiveRecentLimit(t *testing.T) {
	arch := openTestArchive(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := &models.Evaluation{
			ID:        "eval-" + string(rune('a'+i)),
			Status:    models.EvalStatusCompleted,
			CreatedAt: time.UnixMilli(int64(1000 + i)).UTC(),
		}
		if err := arch.Save(ctx, ev); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	got, err := arch.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(got))
	}
	if got[0].ID != "eval-e" {
		t.Fatalf("expected newest evaluation first, got %s", got[0].ID)
	}
}

func TestArchiveSaveRequiresID(t *testing.T) {
	arch := openTestArchive(t)

	if err := arch.Save(context.Background(), &models.Evaluation{}); err == nil {
		t.Fatalf("expected error for evaluation without id")
	}
}

func TestOpenArchiveRequiresPath(t *testing.T) {
	if _, err := OpenArchive(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
