package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

var ErrInference = errors.New("inference call failed")

// Error is returned for any failed model call: transport, timeout, provider
// error or an empty response.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", ErrInference.Error(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrInference.Error(), e.Op, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrInference, e.Err} }

// WithOp labels err with the pipeline operation that issued the call.
func WithOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return &Error{Op: op, Err: aiErr.Err}
	}
	return &Error{Op: op, Err: err}
}

// Params are the per-call sampling settings.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Client sends a system prompt and the user's text to a generative model and
// returns the raw completion.
type Client interface {
	Complete(ctx context.Context, prompt, userText string, params Params) (string, error)
}

type Options struct {
	BaseURL string
	APIKey  string
	Model   string

	// Timeout bounds a single attempt.
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// LLMClient is the langchaingo-backed Client.
type LLMClient struct {
	model   llms.Model
	timeout time.Duration
	retries uint64
	backoff time.Duration
}

// New builds a client for an OpenAI-compatible chat completion endpoint.
func New(opts Options) (*LLMClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("llm api key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	model, err := openai.New(
		openai.WithModel(opts.Model),
		openai.WithToken(opts.APIKey),
		openai.WithBaseURL(opts.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}

	return NewWithModel(model, opts), nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(model llms.Model, opts Options) *LLMClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 || opts.Retries > 10 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}

	return &LLMClient{
		model:   model,
		timeout: opts.Timeout,
		retries: uint64(opts.Retries), // #nosec G115 -- bounded above
		backoff: opts.Backoff,
	}
}

func (c *LLMClient) Complete(ctx context.Context, prompt, userText string, params Params) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt),
	}
	if userText != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userText))
	}

	callOpts := buildCallOptions(params)
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))

	var content string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.model.GenerateContent(attemptCtx, messages, callOpts...)
		if err != nil {
			if ctx.Err() == nil && isRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
			return errors.New("empty response from LLM")
		}

		content = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		return "", &Error{Err: err}
	}

	return content, nil
}

func buildCallOptions(p Params) []llms.CallOption {
	var options []llms.CallOption

	if p.Model != "" {
		options = append(options, llms.WithModel(p.Model))
	}
	if p.Temperature > 0 {
		options = append(options, llms.WithTemperature(p.Temperature))
	}
	if p.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(p.MaxTokens))
	}
	if p.JSONMode {
		options = append(options, llms.WithJSONMode())
	}

	return options
}

var transientPattern = regexp.MustCompile(`(?i)(429|500|502|503|504|rate.?limit|timeout|temporar|overloaded|connection reset)`)

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return transientPattern.MatchString(err.Error())
}
