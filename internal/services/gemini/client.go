package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"docsmith/internal/logging"
	"docsmith/internal/services"
)

// UncertaintyMarker is the prefix the generation prompt instructs the model
// to emit when it cannot transcribe the input faithfully.
const UncertaintyMarker = "UNCERTAIN_CONVERSION"

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 2 * time.Second
)

// Config captures the runtime settings for the hosted API.
type Config struct {
	APIKey     string
	Model      string
	MaxRetries int
	BaseDelay  time.Duration
}

// Payload is one uploaded file.
type Payload struct {
	MIMEType string
	Data     []byte
}

// Result is a successful (possibly soft-successful) generation.
type Result struct {
	Text      string
	Uncertain bool
	Attempts  int
}

// transport performs one generation call. The production transport talks to
// the genai SDK; tests inject fakes.
type transport func(ctx context.Context, instruction string, payload Payload) (string, error)

// Client retries a generation transport on rate-limit signals.
type Client struct {
	cfg    Config
	logger *slog.Logger
	call   transport
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// Option customizes the client.
type Option func(*Client)

// WithTransport overrides the generation transport (used in tests).
func WithTransport(call transport) Option {
	return func(c *Client) {
		if call != nil {
			c.call = call
		}
	}
}

// WithSleeper overrides how retry delays are waited out (used in tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New constructs a client. The genai SDK handle is created once here, at
// startup, and shared by every worker; it is never lazily initialized on
// first use.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}

	c := &Client{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "gemini"),
		sleep:  sleepWithContext,
		jitter: rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.call == nil {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "gemini", "new", "api key required", nil)
		}
		call, err := newGenAITransport(ctx, cfg)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "gemini", "new", "create client", err)
		}
		c.call = call
	}

	return c, nil
}

// Submit sends the payload with the given instruction, retrying rate-limit
// responses with delay = base^attempt plus random jitter, up to the attempt
// ceiling. Uncertainty-marked responses are soft successes.
func (c *Client) Submit(ctx context.Context, instruction string, payload Payload) (Result, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		text, err := c.call(ctx, instruction, payload)
		if err == nil {
			return c.finish(text, attempt), nil
		}

		if !isRateLimited(err) {
			return Result{Attempts: attempt}, services.Wrap(services.ErrExternalTool, "gemini", "generate",
				fmt.Sprintf("terminal failure on attempt %d", attempt), err)
		}
		lastErr = err

		if attempt == c.cfg.MaxRetries {
			break
		}
		delay := c.backoffDelay(attempt)
		c.logger.Warn("rate limited, backing off",
			logging.String(logging.FieldEventType, "gemini_rate_limited"),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("delay", delay),
			logging.String(logging.FieldImpact, "conversion delayed, not failed"))
		if err := c.sleep(ctx, delay); err != nil {
			return Result{Attempts: attempt}, services.Wrap(services.ErrExternalTool, "gemini", "generate",
				"cancelled while backing off", err)
		}
	}

	return Result{Attempts: c.cfg.MaxRetries}, services.Wrap(services.ErrRateLimited, "gemini", "generate",
		fmt.Sprintf("exhausted %d attempts", c.cfg.MaxRetries), lastErr)
}

func (c *Client) finish(text string, attempts int) Result {
	result := Result{Text: text, Attempts: attempts}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, UncertaintyMarker) {
		result.Uncertain = true
		result.Text = strings.TrimSpace(strings.TrimPrefix(trimmed, UncertaintyMarker))
		result.Text = strings.TrimPrefix(result.Text, ":")
		result.Text = strings.TrimSpace(result.Text)
		c.logger.Debug("soft success: uncertain conversion",
			logging.Int(logging.FieldAttempt, attempts))
	}
	return result
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.cfg.BaseDelay.Seconds()
	seconds := math.Pow(base, float64(attempt)) + c.jitter()
	return time.Duration(seconds * float64(time.Second))
}

// isRateLimited reports whether err is the service's distinguished
// rate-limit condition.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, services.ErrRateLimited) {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{"resource_exhausted", "429", "rate limit", "quota exceeded"} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
