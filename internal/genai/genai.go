// Package genai provides the LLM gateway for ServiceBuilder, wrapping the
// OpenAI chat completions API with per-call timeouts and bounded retry.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default configuration constants.
const (
	DefaultModel      = openai.ChatModelGPT4oMini
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 2
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genai_requests_total",
		Help: "Total chat completion requests by kind and outcome.",
	}, []string{"kind", "outcome"})
	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "genai_request_duration_seconds",
		Help:    "Chat completion request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

// CompletionRequest describes a single chat completion call. JSONMode asks
// the model for a JSON object response; MaxTokens of 0 leaves the limit to
// the model default.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
	JSONMode    bool
}

// ClientInterface is the seam the workflow engine depends on. Complete
// returns the raw text of the first choice.
type ClientInterface interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client calls OpenAI chat completions. Implements ClientInterface.
type Client struct {
	client     openai.Client
	model      string
	timeout    time.Duration
	maxRetries uint64
}

// Opts holds configuration collected from Options.
type Opts struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries uint64
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithMaxRetries sets how many times a failed call is retried before the
// error is returned to the caller.
func WithMaxRetries(n uint64) Option {
	return func(o *Opts) { o.MaxRetries = n }
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:      DefaultModel,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	slog.Debug("GenAI.NewClient: client configured", "model", cfg.Model, "timeout", cfg.Timeout, "max_retries", cfg.MaxRetries)
	return &Client{
		client:     openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Complete runs one chat completion, retrying transient failures with
// exponential backoff. Each attempt gets its own timeout.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	kind := "text"
	if req.JSONMode {
		kind = "json"
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	var content string
	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		resp, err := c.client.Chat.Completions.New(attemptCtx, params)
		if err != nil {
			slog.Debug("GenAI.Complete: attempt failed", "kind", kind, "error", err)
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices returned")
		}
		content = resp.Choices[0].Message.Content
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx))
	requestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(kind, "error").Inc()
		slog.Error("GenAI.Complete: request failed", "kind", kind, "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	requestsTotal.WithLabelValues(kind, "success").Inc()
	slog.Debug("GenAI.Complete: request succeeded", "kind", kind, "duration", time.Since(start), "response_length", len(content))
	return content, nil
}
