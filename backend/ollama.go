// Package backend provides remote completion clients for the engine.
// The Ollama client asks a local model server for one formula
// continuation; the engine time-boxes the call, so a slow or absent
// server never stalls a keystroke.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/javajack/xlcomplete"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "qwen2.5-coder:1.5b"
)

// OllamaClient implements xlcomplete.CompletionClient against a local
// Ollama server's /api/generate endpoint.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithBaseURL overrides the server URL (default http://localhost:11434).
func WithBaseURL(url string) OllamaOption {
	return func(c *OllamaClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithModel overrides the model name.
func WithModel(model string) OllamaOption {
	return func(c *OllamaClient) { c.model = model }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) OllamaOption {
	return func(c *OllamaClient) { c.httpClient = hc }
}

// NewOllamaClient creates a client for a local Ollama server.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		model:      defaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Options any    `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// CompleteTabCompletion implements xlcomplete.CompletionClient. The
// prompt carries the partial formula up to the cursor; the model's
// continuation is returned trimmed to its first line.
func (c *OllamaClient) CompleteTabCompletion(ctx context.Context, creq xlcomplete.CompletionRequest) (string, error) {
	input, cursor := creq.Input, creq.Cursor
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(input) {
		cursor = len(input)
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: buildPrompt(input, cursor, creq.CellA1),
		Stream: false,
		Options: map[string]any{
			"temperature": 0,
			"num_predict": 48,
			"stop":        []string{"\n"},
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr generateResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if strings.TrimSpace(apiErr.Error) != "" {
			return "", fmt.Errorf("ollama error: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("ollama http error: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Error) != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}

	completion := out.Response
	if i := strings.IndexByte(completion, '\n'); i >= 0 {
		completion = completion[:i]
	}
	completion = strings.TrimSpace(completion)
	if completion == "" {
		return "", fmt.Errorf("ollama: empty completion")
	}
	return completion, nil
}

func buildPrompt(input string, cursor int, cellA1 string) string {
	var b strings.Builder
	b.WriteString("Complete the spreadsheet formula. Reply with only the completed formula, no explanation.\n")
	if cellA1 != "" {
		b.WriteString("Cell being edited: ")
		b.WriteString(cellA1)
		b.WriteString("\n")
	}
	b.WriteString("Formula so far: ")
	b.WriteString(input[:cursor])
	return b.String()
}
