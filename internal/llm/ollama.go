package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrGenerationFailed covers every way a generation call can fail: transport
// errors, timeouts, non-2xx answers and undecodable bodies.
var ErrGenerationFailed = errors.New("answer generation failed")

type OllamaClient struct {
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
	logger     *zap.Logger
}

// OllamaOptions configures the Ollama client.
type OllamaOptions struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func NewOllamaClient(opts OllamaOptions, logger *zap.Logger) *OllamaClient {
	return &OllamaClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger.Named("ollama"),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends a single non-streaming completion request and returns the
// raw generated text. system may be empty.
func (o *OllamaClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: prompt,
		System: system,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrGenerationFailed, err)
	}

	attempts := o.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		var text string
		text, err = o.generateOnce(ctx, payload)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			break
		}
		o.logger.Warn("generation attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("attempts", attempts),
		)
	}
	return "", err
}

func (o *OllamaClient) generateOnce(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: ollama returned status %d", ErrGenerationFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGenerationFailed, err)
	}

	return result.Response, nil
}

// HealthCheck probes /api/tags. Used only for diagnostics.
func (o *OllamaClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
