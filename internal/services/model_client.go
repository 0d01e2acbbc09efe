package services

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

	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/utils"
)

// ErrOverloaded marks a transient model-backend failure that survived the
// full retry/fallback chain. Callers should treat it as retryable-later, not
// fatal.
var ErrOverloaded = errors.New("model backend overloaded")

// ModelClient is the gateway to the language-model completion backend.
type ModelClient interface {
	// Complete sends one prompt and returns the raw completion text.
	// preferAlternate starts the call chain on the alternate model.
	Complete(ctx context.Context, prompt string, preferAlternate bool) (string, error)
}

type modelHTTPError struct {
	StatusCode int
	Body       string
}

func (e *modelHTTPError) Error() string {
	return fmt.Sprintf("model http %d: %s", e.StatusCode, e.Body)
}

// isOverloadErr classifies a gateway failure as transient overload: HTTP 503,
// or an error message mentioning overload / service unavailability. Anything
// else is a permanent or input error and is not retried.
func isOverloadErr(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *modelHTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusServiceUnavailable {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overload") ||
		strings.Contains(msg, "service unavailable") ||
		strings.Contains(msg, "503")
}

type modelClient struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string

	primaryModel   string
	alternateModel string

	maxRetries  int
	switchDelay time.Duration
	retryDelay  time.Duration
}

func NewModelClient(log *logger.Logger) (ModelClient, error) {
	serviceLog := log.With("service", "ModelClient")

	apiKey := utils.GetEnv("MODEL_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("MODEL_API_KEY is not set")
	}
	baseURL := utils.GetEnv("MODEL_BASE_URL", "https://api.openai.com", log)
	primary := utils.GetEnv("MODEL_PRIMARY", "gpt-4o-mini", log)
	alternate := utils.GetEnv("MODEL_ALTERNATE", "", log)
	timeoutSec := utils.GetEnvAsInt("MODEL_TIMEOUT_SECONDS", 60, log)

	return &modelClient{
		log:            serviceLog,
		httpClient:     &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		primaryModel:   primary,
		alternateModel: alternate,
		maxRetries:     2,
		switchDelay:    2 * time.Second,
		retryDelay:     5 * time.Second,
	}, nil
}

func (c *modelClient) Complete(ctx context.Context, prompt string, preferAlternate bool) (string, error) {
	model := c.primaryModel
	if preferAlternate && c.alternateModel != "" {
		model = c.alternateModel
	}
	return c.completeAttempt(ctx, prompt, model, 0, false)
}

// completeAttempt implements the bounded, doubly-nested retry: one model
// switch per call chain, plus up to maxRetries backoff retries per model.
// Worst case with both models overloaded: ~2s + 5s + 10s of waiting.
func (c *modelClient) completeAttempt(ctx context.Context, prompt, model string, retries int, alternateTried bool) (string, error) {
	out, err := c.completeOnce(ctx, prompt, model)
	if err == nil {
		return out, nil
	}
	if !isOverloadErr(err) {
		return "", err
	}

	if other := c.otherModel(model); !alternateTried && other != "" {
		c.log.Warn("Model overloaded, switching model",
			"model", model,
			"next_model", other,
			"error", err.Error(),
		)
		if sErr := c.sleep(ctx, c.switchDelay); sErr != nil {
			return "", sErr
		}
		return c.completeAttempt(ctx, prompt, other, 0, true)
	}

	if retries < c.maxRetries {
		delay := time.Duration(retries+1) * c.retryDelay
		c.log.Warn("Model overloaded, retrying",
			"model", model,
			"retry", retries+1,
			"max_retries", c.maxRetries,
			"sleep", delay.String(),
			"error", err.Error(),
		)
		if sErr := c.sleep(ctx, delay); sErr != nil {
			return "", sErr
		}
		return c.completeAttempt(ctx, prompt, model, retries+1, alternateTried)
	}

	c.log.Error("Model retries exhausted", "model", model, "error", err.Error())
	return "", fmt.Errorf("completion failed after retries on all models: %w", ErrOverloaded)
}

func (c *modelClient) otherModel(current string) string {
	if c.alternateModel == "" || c.alternateModel == c.primaryModel {
		return ""
	}
	if current == c.primaryModel {
		return c.alternateModel
	}
	return c.primaryModel
}

func (c *modelClient) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *modelClient) completeOnce(ctx context.Context, prompt, model string) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &modelHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("model decode error: %w; raw=%s", err, string(raw))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
