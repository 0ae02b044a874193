// Package gemini implements shared.TextGenerator on the Gemini API.
//
// Calls go through a circuit breaker: after a run of failures the client
// fails fast until the breaker lets a probe through. Callers turn any error
// into a placeholder message, so failing fast only saves the round trip.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/pkg/circuitbreaker"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultModel is the model the hub was built against.
const DefaultModel = "gemini-3-flash-preview"

// Config holds client settings.
type Config struct {
	APIKey string
	Model  string

	// Timeout bounds a single generation call.
	Timeout time.Duration

	// BreakerThreshold consecutive failures open the breaker for BreakerOpenFor.
	BreakerThreshold int
	BreakerOpenFor   time.Duration
}

// DefaultConfig returns defaults without an API key.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		Timeout:          30 * time.Second,
		BreakerThreshold: 3,
		BreakerOpenFor:   30 * time.Second,
	}
}

// ErrEmptyPrompt is returned for a blank prompt.
var ErrEmptyPrompt = errors.New("gemini: prompt is empty")

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client generates text with one Gemini model.
type Client struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

var _ shared.TextGenerator = (*Client)(nil)

// New creates a client for the Gemini API.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newClient(client.Models, cfg, log), nil
}

func newClient(models contentGenerator, cfg Config, log *logger.Logger) *Client {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = def.BreakerThreshold
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = def.BreakerOpenFor
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("gemini"))

	return &Client{
		models:  models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log,
		breaker: circuitbreaker.TextGeneratorBreaker(cfg.BreakerThreshold, cfg.BreakerOpenFor,
			func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			}),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Breaker exposes the breaker for health reporting.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// GenerateText sends prompt as a single user turn and returns the reply text.
// Errors are wrapped with shared.ErrExternalService.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	start := time.Now()
	text, err := circuitbreaker.ExecuteWithData(ctx, c.breaker, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.models.GenerateContent(callCtx, c.model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			return "", shared.WrapError("assistant", "Generate", shared.ErrServiceUnavailable, "text generator is cooling down", err)
		}
		return "", shared.WrapError("assistant", "Generate", shared.ErrExternalService, "text generation failed", err)
	}

	c.log.Debug("text generated",
		logger.String("model", c.model),
		logger.Latency(time.Since(start)),
		logger.Int("chars", len(text)),
	)
	return text, nil
}
