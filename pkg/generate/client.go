// Package generate provides the text-generation client for the question
// answering flow. All terminal failures surface as sentinel strings rather
// than errors because the caller-facing contract always returns plain text.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the default generation model.
	DefaultModel = "llama3.2:1b"

	// DefaultMaxAttempts is how many times a generate call is tried before
	// a sentinel is returned.
	DefaultMaxAttempts = 3

	// DefaultDeadline bounds GenerateWithDeadline.
	DefaultDeadline = 30 * time.Second

	defaultTemperature     = 0.1
	defaultNumPredict      = 500
	defaultTopP            = 0.9
	defaultConnectBackoff  = time.Second
	defaultProtocolBackoff = 500 * time.Millisecond
	defaultRequestTimeout  = 60 * time.Second
)

// TimeoutSentinel is returned when the generation deadline elapses before an
// answer arrives.
const TimeoutSentinel = "⚠️ LLM request timed out."

// failureMarker prefixes every terminal failure sentinel.
const failureMarker = "❌"

// Config holds configuration for the generation client.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the generation model name. Defaults to DefaultModel.
	Model string

	// MaxAttempts is the retry budget per Generate call.
	// Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// Temperature, NumPredict, and TopP are passed through as Ollama
	// sampling options. Zero values fall back to the defaults
	// (0.1 / 500 / 0.9).
	Temperature float64
	NumPredict  int
	TopP        float64

	// ConnectBackoff is the progressive backoff unit for connectivity
	// failures: attempt n waits n×ConnectBackoff. Defaults to 1s.
	ConnectBackoff time.Duration

	// ProtocolBackoff is the flat delay after protocol failures.
	// Defaults to 500ms.
	ProtocolBackoff time.Duration

	// RequestTimeout bounds a single HTTP attempt. Defaults to 60s.
	RequestTimeout time.Duration
}

// Client calls the text-generation endpoint with retry and backoff.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a generation client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.NumPredict == 0 {
		cfg.NumPredict = defaultNumPredict
	}
	if cfg.TopP == 0 {
		cfg.TopP = defaultTopP
	}
	if cfg.ConnectBackoff == 0 {
		cfg.ConnectBackoff = defaultConnectBackoff
	}
	if cfg.ProtocolBackoff == 0 {
		cfg.ProtocolBackoff = defaultProtocolBackoff
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// Generate sends the prompt to the generation endpoint and returns the
// answer text. It never returns an error: after MaxAttempts failed tries the
// result is a sentinel string naming the failure class and attempt count.
// Retries are sequential; connectivity failures wait attempt×ConnectBackoff,
// protocol failures wait ProtocolBackoff.
func (c *Client) Generate(ctx context.Context, prompt string) string {
	state := phaseAttempting

	var lastErr error
	attempts := 0

	for attempt := 1; state == phaseAttempting; attempt++ {
		attempts = attempt
		text, kind, err := c.attempt(ctx, prompt)
		if kind == kindNone {
			return text
		}

		c.logger.Warn("generate attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.MaxAttempts),
			zap.Bool("connectivity", kind == kindConnectivity),
			zap.Error(err),
		)

		lastErr = err

		if attempt >= c.cfg.MaxAttempts {
			if kind == kindConnectivity {
				state = phaseExhaustedConnectivity
			} else {
				state = phaseExhaustedProtocol
			}
			break
		}

		select {
		case <-time.After(delay(kind, attempt, c.cfg.ConnectBackoff, c.cfg.ProtocolBackoff)):
		case <-ctx.Done():
			state = phaseExhaustedConnectivity
			lastErr = ctx.Err()
		}
	}

	return c.sentinel(state, attempts, lastErr)
}

// GenerateWithDeadline races Generate against a wall-clock deadline and
// returns whichever resolves first. Cancellation of a losing generate call is
// advisory only: the in-flight attempt is not forcibly aborted, its eventual
// answer is simply dropped.
func (c *Client) GenerateWithDeadline(ctx context.Context, prompt string, deadline time.Duration) string {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}

	results := make(chan string, 1)
	go func() {
		results <- c.Generate(ctx, prompt)
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case answer := <-results:
		return answer
	case <-timer.C:
		return TimeoutSentinel
	}
}

// attempt performs a single generate call and classifies its outcome.
func (c *Client) attempt(ctx context.Context, prompt string) (string, failureKind, error) {
	reqBody := generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.NumPredict,
			TopP:        c.cfg.TopP,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", kindProtocol, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", kindProtocol, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", kindConnectivity, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", kindProtocol, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", kindProtocol, fmt.Errorf("decoding response: %w", err)
	}

	if genResp.Response == nil {
		return "", kindProtocol, fmt.Errorf("response body missing answer field")
	}

	return *genResp.Response, kindNone, nil
}

// sentinel renders a terminal phase as the caller-facing failure string.
// attempts is the number of attempts that actually ran, which is lower than
// MaxAttempts when the context is cancelled during backoff.
func (c *Client) sentinel(state phase, attempts int, err error) string {
	switch state {
	case phaseExhaustedConnectivity:
		return fmt.Sprintf("%s LLM service is currently unavailable after %d attempts. Please try again later.", failureMarker, attempts)
	case phaseExhaustedProtocol:
		return fmt.Sprintf("%s Error communicating with LLM service: %v", failureMarker, err)
	default:
		return fmt.Sprintf("%s Maximum retry attempts exceeded", failureMarker)
	}
}

// IsFailure reports whether an answer string is a failure or timeout
// sentinel rather than model output.
func IsFailure(answer string) bool {
	return strings.HasPrefix(answer, failureMarker) || answer == TimeoutSentinel
}
