package catiad

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/logger"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/utils"
)

// ErrInvalidURL indicates a callback URL the notifier refuses to post to
var ErrInvalidURL = errors.New("invalid callback URL")

// NotificationPayload is the JSON body posted to the callback URL when
// an evaluation reaches a terminal status
type NotificationPayload struct {
	EvalID     string                  `json:"eval_id"`
	Status     models.EvalStatus       `json:"status"`
	Inputs     map[string]models.Value `json:"inputs,omitempty"`
	Outputs    map[string]models.Value `json:"outputs,omitempty"`
	Error      string                  `json:"error,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	StartedAt  time.Time               `json:"started_at,omitzero"`
	FinishedAt time.Time               `json:"finished_at,omitzero"`
	DurationMS float64                 `json:"duration_ms,omitempty"`
	// Timestamp records when the notification was sent, unix ms
	Timestamp int64 `json:"timestamp"`
}

// Notifier posts finished evaluations to a configured webhook. A nil
// Notifier is valid and does nothing.
type Notifier struct {
	url        string
	secret     string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewNotifier builds a notifier from the callback configuration. A nil
// config disables notifications and returns a nil notifier.
func NewNotifier(cfg *config.CallbackConfig) (*Notifier, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}
	if err := validateCallbackURL(cfg.URL); err != nil {
		return nil, err
	}
	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, fmt.Errorf("callback timeout: %w", err)
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Notifier{
		url:        cfg.URL,
		secret:     cfg.Secret,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		baseDelay:  1 * time.Second,
	}, nil
}

// validateCallbackURL rejects URLs the notifier cannot post to. The
// URL comes from operator configuration, so private hosts are allowed;
// only the scheme and host are checked.
func validateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	return nil
}

// Notify posts the evaluation to the callback URL. It returns
// immediately and delivers in a goroutine; any {eval_id} template in
// the URL is replaced first.
func (n *Notifier) Notify(ev *models.Evaluation) {
	if n == nil || ev == nil {
		return
	}

	finalURL := strings.ReplaceAll(n.url, "{eval_id}", ev.ID)
	payload := NotificationPayload{
		EvalID:     ev.ID,
		Status:     ev.Status,
		Inputs:     ev.Inputs,
		Outputs:    ev.Outputs,
		Error:      ev.Error,
		CreatedAt:  ev.CreatedAt,
		StartedAt:  ev.StartedAt,
		FinishedAt: ev.FinishedAt,
		DurationMS: ev.DurationMS,
		Timestamp:  time.Now().UTC().UnixMilli(),
	}

	go n.send(finalURL, payload)
}

// send performs the HTTP POST with retries and exponential backoff.
// Every attempt of one delivery carries the same X-Request-ID.
func (n *Notifier) send(callbackURL string, payload NotificationPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification payload",
			"callback_url", callbackURL,
			"eval_id", payload.EvalID,
			"error", err)
		return
	}
	requestID := utils.GenerateRequestID()

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: delay = baseDelay * 2^(attempt-1)
			delay := n.baseDelay * time.Duration(1<<uint(attempt-1))
			logger.Debug("retrying notification",
				"callback_url", callbackURL,
				"eval_id", payload.EvalID,
				"attempt", attempt,
				"delay", delay)
			time.Sleep(delay)
		}

		status, respBody, err := n.post(callbackURL, requestID, body)
		if err != nil {
			lastErr = err
			logger.Warn("notification attempt failed",
				"callback_url", callbackURL,
				"eval_id", payload.EvalID,
				"request_id", requestID,
				"attempt", attempt+1,
				"error", err)
			continue
		}

		if status >= 200 && status < 300 {
			logger.Info("notification sent",
				"eval_id", payload.EvalID,
				"request_id", requestID,
				"status", payload.Status,
				"status_code", status)
			return
		}

		lastErr = fmt.Errorf("unexpected status code: %d", status)
		logger.Warn("notification returned non-2xx status",
			"callback_url", callbackURL,
			"eval_id", payload.EvalID,
			"status_code", status,
			"response_body", respBody,
			"attempt", attempt+1)
	}

	logger.Error("failed to send notification after retries",
		"callback_url", callbackURL,
		"eval_id", payload.EvalID,
		"request_id", requestID,
		"max_retries", n.maxRetries,
		"last_error", lastErr)
}

// post sends one attempt and returns the status code with a truncated
// response body for logging
func (n *Notifier) post(callbackURL, requestID string, body []byte) (int, string, error) {
	req, err := http.NewRequest(http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "catia-bridge/1.0")
	req.Header.Set("X-Request-ID", requestID)
	if n.secret != "" {
		req.Header.Set("X-Bridge-Callback-Secret", n.secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	respBytes, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	respBody := string(respBytes)
	if len(respBody) > 200 {
		respBody = respBody[:200] + "..."
	}
	return resp.StatusCode, respBody, nil
}
