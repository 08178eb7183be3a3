package catiad

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/bridge"
	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/logger"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/utils"
)

var (
	ErrEvalIDMissing = errors.New("evaluation ID is required")
	ErrNotReady      = errors.New("model is not ready")
	ErrQueueFull     = errors.New("evaluation queue is full")
)

const evalQueueSize = 64

// ModelInfo is the resolved variable surface the daemon exposes
type ModelInfo struct {
	Path    string           `json:"path"`
	Root    string           `json:"root"`
	Inputs  []models.VarInfo `json:"inputs"`
	Outputs []models.VarInfo `json:"outputs"`
}

// SessionInfo describes the automation session for the status endpoint.
// Sensors is only populated for analysis documents.
type SessionInfo struct {
	ProgID   string         `json:"prog_id"`
	Attached bool           `json:"attached"`
	Visible  bool           `json:"visible"`
	Alive    bool           `json:"alive"`
	Caption  string         `json:"caption,omitempty"`
	Sensors  []catia.Sensor `json:"sensors,omitempty"`
}

// ExecutorOptions wires the executor's collaborators. Archive and
// Notifier may be nil.
type ExecutorOptions struct {
	Store    *EvalStore
	Archive  *Archive
	Notifier *Notifier
	Session  config.SessionConfig
	Model    config.ModelSpec
	// Dial overrides how the automation session is established; when
	// nil the executor connects per the session configuration. Tests
	// attach fake applications through it.
	Dial func(ctx context.Context) (*catia.Session, error)
}

// Executor owns the automation session and runs evaluations one at a
// time. Automation is apartment threaded, so every call to the
// application happens on the goroutine Run locks to its OS thread;
// the exported methods only touch the store and the queues.
type Executor struct {
	store    *EvalStore
	archive  *Archive
	notifier *Notifier
	session  config.SessionConfig
	model    config.ModelSpec
	dial     func(ctx context.Context) (*catia.Session, error)

	queue   chan string
	reloads chan reloadRequest

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	info     *ModelInfo
	sessInfo *SessionInfo
}

func NewExecutor(opts ExecutorOptions) *Executor {
	e := &Executor{
		store:    opts.Store,
		archive:  opts.Archive,
		notifier: opts.Notifier,
		session:  opts.Session,
		model:    opts.Model,
		dial:     opts.Dial,
		queue:    make(chan string, evalQueueSize),
		reloads:  make(chan reloadRequest),
		cancels:  make(map[string]context.CancelFunc),
	}
	if e.dial == nil {
		e.dial = e.connect
	}
	return e
}

// Run connects to the application, sets up the bridge component and
// serves the evaluation queue until ctx ends
func (e *Executor) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := catia.InitAutomation(); err != nil {
		return fmt.Errorf("init automation: %w", err)
	}
	defer catia.ShutdownAutomation()

	sess, err := e.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial application: %w", err)
	}
	defer sess.Close()

	comp, err := e.setup(ctx, sess, e.model)
	if err != nil {
		return fmt.Errorf("set up model: %w", err)
	}
	defer func() { comp.Close() }()

	keepalive := time.NewTicker(e.keepaliveInterval())
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			e.drainQueue()
			logger.Info("executor stopped")
			return nil
		case id := <-e.queue:
			e.execute(ctx, comp, id)
		case req := <-e.reloads:
			spec := e.model
			if req.spec != nil {
				spec = *req.spec
			}
			next, err := e.setup(ctx, sess, spec)
			if err == nil {
				e.model = spec
				comp.Close()
				comp = next
				logger.Info("model reloaded", "path", next.Path())
			} else {
				logger.Error("model reload failed", "error", err)
			}
			req.reply <- err
		case <-keepalive.C:
			e.checkSession(sess)
		}
	}
}

// connect dials per the session configuration, bounded by the
// configured connect timeout
func (e *Executor) connect(ctx context.Context) (*catia.Session, error) {
	timeout, err := e.session.GetConnectTimeout()
	if err != nil || timeout <= 0 {
		timeout = 60 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return catia.Connect(dialCtx, catia.ConnectOptions{
		ProgID:     e.session.ProgID,
		AttachOnly: e.session.AttachOnly,
		Visible:    e.session.Visible,
	})
}

func (e *Executor) keepaliveInterval() time.Duration {
	d, err := e.session.GetKeepaliveInterval()
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// setup builds and binds a component from the given model spec, then
// publishes the snapshots the status endpoints serve
func (e *Executor) setup(ctx context.Context, sess *catia.Session, spec config.ModelSpec) (*bridge.Component, error) {
	comp, err := bridge.New(bridge.OptionsFromSpec(spec))
	if err != nil {
		return nil, err
	}
	if err := comp.Setup(ctx, sess); err != nil {
		return nil, err
	}
	e.publish(comp, sess)
	return comp, nil
}

func (e *Executor) publish(comp *bridge.Component, sess *catia.Session) {
	info := &ModelInfo{
		Path:    comp.Path(),
		Root:    string(comp.RootType()),
		Inputs:  comp.Inputs(),
		Outputs: comp.Outputs(),
	}
	si := &SessionInfo{
		ProgID:   sess.ProgID(),
		Attached: sess.Attached(),
		Alive:    true,
	}
	if visible, err := sess.Visible(); err == nil {
		si.Visible = visible
	}
	if caption, err := sess.Caption(); err == nil {
		si.Caption = caption
	}
	if comp.RootType() == catia.RootAnalysis {
		sensors, err := catia.ListSensors(comp.Root())
		if err != nil {
			logger.Warn("failed to list sensors", "error", err)
		}
		si.Sensors = sensors
	}

	e.mu.Lock()
	e.info = info
	e.sessInfo = si
	e.mu.Unlock()
}

// checkSession probes the application and records whether it still
// answers. A dead session is reported, not fatal: evaluations keep
// failing until the operator restarts the application.
func (e *Executor) checkSession(sess *catia.Session) {
	alive := sess.Alive()

	e.mu.Lock()
	prev := false
	if e.sessInfo != nil {
		prev = e.sessInfo.Alive
		si := *e.sessInfo
		si.Alive = alive
		e.sessInfo = &si
	}
	e.mu.Unlock()

	if prev && !alive {
		logger.Error("application stopped answering", "prog_id", sess.ProgID())
	} else if !prev && alive {
		logger.Info("application answering again", "prog_id", sess.ProgID())
	}
}

// execute runs one queued evaluation on the automation thread
func (e *Executor) execute(parent context.Context, comp *bridge.Component, id string) {
	ev, ok := e.store.Get(id)
	if !ok {
		logger.Error("queued evaluation missing", "eval_id", id)
		return
	}
	if ev.Status != models.EvalStatusPending {
		// Cancelled while queued
		return
	}
	if _, err := e.store.SetRunning(id); err != nil {
		logger.Error("failed to start evaluation", "eval_id", id, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(parent)
	e.mu.Lock()
	e.cancels[id] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, id)
		e.mu.Unlock()
		cancel()
	}()

	logger.Info("evaluation started", "eval_id", id, "inputs", len(ev.Inputs))
	outputs, err := comp.Compute(ctx, ev.Inputs)

	switch {
	case err == nil:
		updated, serr := e.store.SetCompleted(id, outputs)
		if serr != nil {
			logger.Error("failed to finish evaluation", "eval_id", id, "error", serr)
			return
		}
		logger.Info("evaluation completed", "eval_id", id,
			"duration", utils.FormatDuration(utils.MsToTime(updated.DurationMS)))
		e.finished(updated)
	case ctx.Err() != nil:
		updated, serr := e.store.SetCancelled(id)
		if serr != nil {
			// Cancel already finished the record
			return
		}
		logger.Info("evaluation cancelled", "eval_id", id)
		e.finished(updated)
	default:
		updated, serr := e.store.SetFailed(id, err.Error())
		if serr != nil {
			logger.Error("failed to finish evaluation", "eval_id", id, "error", serr)
			return
		}
		logger.Warn("evaluation failed", "eval_id", id, "error", err)
		e.finished(updated)
	}
}

// finished archives and announces a terminal evaluation
func (e *Executor) finished(ev *models.Evaluation) {
	if ev == nil {
		return
	}
	if e.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := e.archive.Save(ctx, ev); err != nil {
			logger.Error("failed to archive evaluation", "eval_id", ev.ID, "error", err)
		}
		cancel()
	}
	e.notifier.Notify(ev)
}

// drainQueue cancels evaluations still waiting when the daemon stops
func (e *Executor) drainQueue() {
	for {
		select {
		case id := <-e.queue:
			updated, err := e.store.SetCancelled(id)
			if err != nil {
				continue
			}
			logger.Info("queued evaluation cancelled on shutdown", "eval_id", id)
			e.finished(updated)
		default:
			return
		}
	}
}

// Submit validates the inputs against the current model and queues a
// new evaluation
func (e *Executor) Submit(inputs map[string]models.Value) (*models.Evaluation, error) {
	e.mu.Lock()
	info := e.info
	e.mu.Unlock()
	if info == nil {
		return nil, ErrNotReady
	}

	declared := make(map[string]bool, len(info.Inputs))
	for _, v := range info.Inputs {
		declared[v.Name] = true
	}
	for name := range inputs {
		if !declared[name] {
			return nil, &bridge.UnknownVariableError{Name: name}
		}
	}

	ev := e.store.Create(inputs)
	select {
	case e.queue <- ev.ID:
		return ev, nil
	default:
		if updated, err := e.store.SetFailed(ev.ID, ErrQueueFull.Error()); err == nil {
			e.finished(updated)
		}
		return nil, ErrQueueFull
	}
}

// Cancel stops a pending or running evaluation. Finished evaluations
// stay as they are and report ErrEvalTerminal.
func (e *Executor) Cancel(id string) (*models.Evaluation, error) {
	if id == "" {
		return nil, ErrEvalIDMissing
	}

	e.mu.Lock()
	cancel, running := e.cancels[id]
	e.mu.Unlock()
	if running {
		cancel()
	}

	updated, err := e.store.SetCancelled(id)
	if err != nil {
		return nil, err
	}
	e.finished(updated)
	return updated, nil
}

type reloadRequest struct {
	spec  *config.ModelSpec
	reply chan error
}

// Reload rebuilds the component, from spec when non-nil, else from the
// spec already in service. The rebuild runs on the automation goroutine
// once it finishes the work in front of it; Reload blocks until then.
// On failure the previous component and spec stay in service.
func (e *Executor) Reload(ctx context.Context, spec *config.ModelSpec) error {
	req := reloadRequest{spec: spec, reply: make(chan error, 1)}
	select {
	case e.reloads <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Model returns the resolved variable surface, or nil before setup
func (e *Executor) Model() *ModelInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info
}

// Session returns the session snapshot, or nil before setup
func (e *Executor) Session() *SessionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessInfo
}

// Healthy reports whether the application answered the last probe
func (e *Executor) Healthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessInfo != nil && e.sessInfo.Alive
}
