// Copyright 2024 Event Planner Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the OpenAI-compatible base URL used when none is configured
	DefaultEndpoint = "https://openrouter.ai/api/v1"
	// DefaultModel is the chat model used when none is configured
	DefaultModel = "openai/gpt-3.5-turbo-16k"
	// DefaultTemperature is the sampling temperature used when none is configured
	DefaultTemperature = 0.7

	redacted = "[REDACTED]"
)

// FailureKind classifies a generation failure
type FailureKind string

const (
	NetworkError  FailureKind = "network_error"
	AuthError     FailureKind = "auth_error"
	UpstreamError FailureKind = "upstream_error"
)

// GenerationFailure is returned for every unsuccessful generation attempt.
// Body never contains the API key.
type GenerationFailure struct {
	Kind       FailureKind
	StatusCode int
	Body       string
	Err        error
}

func (e *GenerationFailure) Error() string {
	switch e.Kind {
	case UpstreamError:
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Body)
	case AuthError:
		if e.StatusCode != 0 {
			return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("authentication failed: %s", e.Body)
	default:
		return fmt.Sprintf("network error: %s", e.Body)
	}
}

func (e *GenerationFailure) Unwrap() error {
	return e.Err
}

// Config holds the settings of a generation client
type Config struct {
	APIKey      string
	Endpoint    string
	Model       string
	Temperature float32
	MaxTokens   int
	Referer     string
	Title       string
	Timeout     time.Duration
}

// Client sends prompts to an OpenAI-compatible chat completion endpoint
type Client struct {
	client      *openai.Client
	logger      *zap.Logger
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	tokens      *tokenEstimator
}

// NewClient creates a generation client. No request is made until Generate.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	clientConfig.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: newTransport(cfg.Referer, cfg.Title),
	}

	client := &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		logger:      logger,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		tokens:      newTokenEstimator(),
	}

	client.logger.Info("Generation client initialized",
		zap.String("endpoint", clientConfig.BaseURL),
		zap.String("model", cfg.Model),
		zap.Float64("temperature", float64(cfg.Temperature)),
	)

	return client, nil
}

// Generate sends prompt as a single user message and returns the text of the
// first choice. Exactly one attempt is made.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	c.logger.Debug("Sending chat completion request",
		zap.String("model", c.model),
		zap.Int("estimated_prompt_tokens", c.tokens.Count(prompt)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		failure := c.handleAPIError(ctx, err)
		c.logger.Warn("Chat completion failed",
			zap.String("kind", string(failure.Kind)),
			zap.Int("status_code", failure.StatusCode),
			zap.Duration("processing_time", time.Since(start)),
		)
		return "", failure
	}

	if len(resp.Choices) == 0 {
		return "", &GenerationFailure{Kind: UpstreamError, StatusCode: http.StatusOK, Body: "no choices returned"}
	}

	c.logger.Debug("Chat completion successful",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("processing_time", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}

// handleAPIError maps go-openai errors onto GenerationFailure
func (c *Client) handleAPIError(ctx context.Context, err error) *GenerationFailure {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &GenerationFailure{Kind: NetworkError, Body: c.redact(ctxErr.Error()), Err: ctxErr}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return c.statusFailure(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return c.statusFailure(reqErr.HTTPStatusCode, body, err)
	}

	return &GenerationFailure{Kind: NetworkError, Body: c.redact(err.Error()), Err: err}
}

func (c *Client) statusFailure(status int, body string, err error) *GenerationFailure {
	kind := UpstreamError
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = AuthError
	}
	return &GenerationFailure{Kind: kind, StatusCode: status, Body: c.redact(body), Err: err}
}

func (c *Client) redact(text string) string {
	if c.apiKey == "" {
		return text
	}
	return strings.ReplaceAll(text, c.apiKey, redacted)
}

// headerTransport adds attribution headers to every outbound request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for name, value := range t.headers {
		req.Header.Set(name, value)
	}
	return t.base.RoundTrip(req)
}

func newTransport(referer, title string) http.RoundTripper {
	headers := make(map[string]string)
	if referer != "" {
		headers["HTTP-Referer"] = referer
	}
	if title != "" {
		headers["X-Title"] = title
	}
	return &headerTransport{
		base:    otelhttp.NewTransport(http.DefaultTransport),
		headers: headers,
	}
}

// DisabledClient is used when generation is switched off. Every call fails,
// so callers always receive catalog content.
type DisabledClient struct{}

// Disabled returns a generator that never reaches the network
func Disabled() *DisabledClient {
	return &DisabledClient{}
}

// Generate always fails with an AuthError
func (DisabledClient) Generate(_ context.Context, _ string) (string, error) {
	return "", &GenerationFailure{Kind: AuthError, Body: "generation is disabled"}
}
