package catiad

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/utils"
)

var (
	ErrEvalNotFound = errors.New("evaluation not found")
	ErrEvalTerminal = errors.New("evaluation already finished")
)

// EvalStore keeps the daemon's evaluation records in memory. Methods
// are safe for concurrent use and hand out deep copies, so callers
// never observe a record mid-transition.
type EvalStore struct {
	mu    sync.RWMutex
	evals map[string]*models.Evaluation
	order []string
}

func NewEvalStore() *EvalStore {
	return &EvalStore{
		evals: make(map[string]*models.Evaluation),
	}
}

// Create registers a new pending evaluation and returns its record
func (s *EvalStore) Create(inputs map[string]models.Value) *models.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := &models.Evaluation{
		ID:        utils.GenerateEvalID(),
		Status:    models.EvalStatusPending,
		Inputs:    inputs,
		CreatedAt: time.Now().UTC(),
	}
	ev = ev.Clone()
	s.evals[ev.ID] = ev
	s.order = append(s.order, ev.ID)
	return ev.Clone()
}

func (s *EvalStore) Get(id string) (*models.Evaluation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.evals[id]
	return ev.Clone(), ok
}

// List returns evaluations newest first, optionally filtered by status.
// Offset skips past the newest matches; a non-positive limit means the
// default of 50.
func (s *EvalStore) List(limit, offset int, status models.EvalStatus) []*models.Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	skip := 0
	out := make([]*models.Evaluation, 0, utils.Min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		ev := s.evals[s.order[i]]
		if status != "" && ev.Status != status {
			continue
		}
		if skip < offset {
			skip++
			continue
		}
		out = append(out, ev.Clone())
	}
	return out
}

// SetRunning moves a pending evaluation to running and stamps its
// start time
func (s *EvalStore) SetRunning(id string) (*models.Evaluation, error) {
	return s.transition(id, models.EvalStatusRunning, nil)
}

// SetCompleted finishes a running evaluation with its outputs
func (s *EvalStore) SetCompleted(id string, outputs map[string]models.Value) (*models.Evaluation, error) {
	return s.transition(id, models.EvalStatusCompleted, func(ev *models.Evaluation) {
		ev.Outputs = outputs
	})
}

// SetFailed finishes an evaluation with an error message
func (s *EvalStore) SetFailed(id, errMsg string) (*models.Evaluation, error) {
	return s.transition(id, models.EvalStatusFailed, func(ev *models.Evaluation) {
		ev.Error = errMsg
	})
}

// SetCancelled finishes a pending or running evaluation
func (s *EvalStore) SetCancelled(id string) (*models.Evaluation, error) {
	return s.transition(id, models.EvalStatusCancelled, nil)
}

// transition applies a status change under the store lock. Terminal
// records never change again; running requires pending.
func (s *EvalStore) transition(id string, status models.EvalStatus, apply func(*models.Evaluation)) (*models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEvalNotFound, id)
	}
	if ev.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrEvalTerminal, id, ev.Status)
	}
	if status == models.EvalStatusRunning && ev.Status != models.EvalStatusPending {
		return nil, fmt.Errorf("evaluation %s is already %s", id, ev.Status)
	}

	now := time.Now().UTC()
	ev.Status = status
	switch {
	case status == models.EvalStatusRunning:
		ev.StartedAt = now
	case status.Terminal():
		ev.FinishedAt = now
		if !ev.StartedAt.IsZero() {
			ev.DurationMS = utils.TimeToMs(now.Sub(ev.StartedAt))
		}
	}
	if apply != nil {
		apply(ev)
	}
	ev = ev.Clone()
	s.evals[id] = ev
	return ev.Clone(), nil
}

// Stats summarizes the stored evaluations
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Duration DurationStats  `json:"duration_ms"`
}

// DurationStats aggregates completed evaluation durations in
// milliseconds
type DurationStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

func (s *EvalStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.order), ByStatus: make(map[string]int)}
	var durations []float64
	for _, ev := range s.evals {
		st.ByStatus[string(ev.Status)]++
		if ev.Status == models.EvalStatusCompleted {
			durations = append(durations, ev.DurationMS)
		}
	}
	st.Duration = DurationStats{
		Count:  len(durations),
		Mean:   utils.Round(utils.Mean(durations), 3),
		StdDev: utils.Round(utils.StdDev(durations), 3),
		P50:    utils.Round(utils.P50(durations), 3),
		P95:    utils.Round(utils.P95(durations), 3),
		P99:    utils.Round(utils.P99(durations), 3),
	}
	return st
}
