package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// Client calls one online provider's generation endpoint. Transport-level retry
// with backoff lives here; the dispatcher never retries a terminal failure.
type Client struct {
	provider   string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a provider client with retrying transport.
func NewClient(provider, baseURL, apiKey string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil // silence default debug logger

	return &Client{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: retryClient.StandardClient(),
	}
}

var _ ports.InferenceClient = (*Client)(nil)

type generateRequest struct {
	Model      string         `json:"model"`
	Prompt     string         `json:"prompt"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type generateResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Generate posts the prompt and shaped parameters to the provider and returns
// its output. Failures come back as typed ExternalCallError.
func (c *Client) Generate(ctx context.Context, model domain.ModelDescriptor, prompt string, params map[string]any) (string, error) {
	payload := generateRequest{
		Model:      model.ID,
		Prompt:     prompt,
		Parameters: params,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &domain.ExternalCallError{Provider: c.provider, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	url := c.baseURL + "/v1/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", &domain.ExternalCallError{Provider: c.provider, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.ExternalCallError{Provider: c.provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &domain.ExternalCallError{
			Provider: c.provider,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.ExternalCallError{Provider: c.provider, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Error != "" {
		return "", &domain.ExternalCallError{Provider: c.provider, Err: fmt.Errorf("provider error: %s", out.Error)}
	}
	return out.Output, nil
}
