package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaEndpoint = "http://localhost:11434"

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// OllamaCompleter talks to a local Ollama server's /api/generate endpoint.
type OllamaCompleter struct {
	endpoint   string
	model      string
	maxTokens  int
	httpClient *http.Client
}

func NewOllamaCompleter(endpoint, model string, maxTokens int) *OllamaCompleter {
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	return &OllamaCompleter{
		endpoint:  strings.TrimRight(endpoint, "/"),
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *OllamaCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	reqData, err := json.Marshal(ollamaRequest{
		Model:   c.model,
		System:  system,
		Prompt:  prompt,
		Options: ollamaOptions{NumPredict: c.maxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(reqData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}
	return result.Response, nil
}

func (c *OllamaCompleter) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
