package catia

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/logger"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/utils"
)

// DefaultProgID is the automation identifier the application registers
const DefaultProgID = "CATIA.Application"

const (
	defaultRetryBase = 500 * time.Millisecond
	defaultRetryMax  = 10 * time.Second
)

// ConnectOptions controls how a Session is established
type ConnectOptions struct {
	// ProgID overrides the automation identifier (default DefaultProgID)
	ProgID string
	// AttachOnly refuses to start a new application instance
	AttachOnly bool
	// Visible shows the application window after connecting
	Visible bool
	// RetryBase and RetryMax bound the backoff between dial attempts
	RetryBase time.Duration
	RetryMax  time.Duration
}

// Session wraps a live application handle. Sessions are not safe for
// concurrent use; callers serialize automation traffic.
type Session struct {
	app      Object
	progID   string
	attached bool
}

// NewSession wraps an already dialed application handle. Tests and
// platform backends use it; most callers go through Connect.
func NewSession(app Object, progID string) *Session {
	if progID == "" {
		progID = DefaultProgID
	}
	return &Session{app: app, progID: progID, attached: true}
}

// Connect dials the application, preferring a running instance and
// starting a new one unless opts.AttachOnly is set. Dial failures are
// retried with exponential backoff until the context ends.
func Connect(ctx context.Context, opts ConnectOptions) (*Session, error) {
	progID := opts.ProgID
	if progID == "" {
		progID = DefaultProgID
	}
	base := opts.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	maxDelay := opts.RetryMax
	if maxDelay <= 0 {
		maxDelay = defaultRetryMax
	}
	backoff := utils.NewExponentialBackoff(base, maxDelay, 2.0, true)

	var lastErr error
	for attempt := 0; ; attempt++ {
		app, attached, err := dial(progID, opts.AttachOnly)
		if err == nil {
			sess := &Session{app: app, progID: progID, attached: attached}
			if opts.Visible {
				if err := sess.SetVisible(true); err != nil {
					logger.Warn("failed to show application window", "error", err)
				}
			}
			logger.Info("connected to application", "prog_id", progID, "attached", attached)
			return sess, nil
		}
		if errors.Is(err, ErrUnsupportedPlatform) {
			return nil, err
		}
		lastErr = err
		logger.Warn("application dial failed", "prog_id", progID, "attempt", attempt+1, "error", err)
		if !utils.SleepContext(ctx, backoff.NextDelay(attempt)) {
			return nil, fmt.Errorf("connect to %s: %w", progID, lastErr)
		}
	}
}

// dial attaches to a running instance, falling back to starting one
func dial(progID string, attachOnly bool) (Object, bool, error) {
	app, err := attachObject(progID)
	if err == nil {
		return app, true, nil
	}
	if attachOnly {
		return nil, false, err
	}
	app, err = startObject(progID)
	if err != nil {
		return nil, false, err
	}
	return app, false, nil
}

// App returns the application handle
func (s *Session) App() Object {
	return s.app
}

// ProgID returns the automation identifier the session dialed
func (s *Session) ProgID() string {
	return s.progID
}

// Attached reports whether the session bound to an already running instance
func (s *Session) Attached() bool {
	return s.attached
}

// Caption returns the application window caption
func (s *Session) Caption() (string, error) {
	if s.app == nil {
		return "", ErrNotConnected
	}
	return GetString(s.app, "Caption")
}

// Alive reports whether the application still answers automation calls.
// Reading the caption is the cheapest round trip the application offers.
func (s *Session) Alive() bool {
	_, err := s.Caption()
	return err == nil
}

// Visible reports whether the application window is shown
func (s *Session) Visible() (bool, error) {
	if s.app == nil {
		return false, ErrNotConnected
	}
	return GetBool(s.app, "Visible")
}

// SetVisible shows or hides the application window
func (s *Session) SetVisible(visible bool) error {
	if s.app == nil {
		return ErrNotConnected
	}
	return s.app.Put("Visible", visible)
}

// Quit asks the application to exit and releases the handle
func (s *Session) Quit() error {
	if s.app == nil {
		return ErrNotConnected
	}
	_, err := s.app.Call("Quit")
	s.Close()
	return err
}

// Close releases the application handle without quitting the application
func (s *Session) Close() {
	if s.app != nil {
		s.app.Release()
		s.app = nil
	}
}

// InitAutomation prepares the calling OS thread for automation calls.
// The caller locks its goroutine to the thread first and keeps every
// automation call on it. ShutdownAutomation undoes the setup.
func InitAutomation() error {
	return initAutomation()
}

// ShutdownAutomation tears down the calling OS thread's automation state
func ShutdownAutomation() {
	shutdownAutomation()
}
