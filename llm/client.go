package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

// Options control a single completion request. Zero values fall back to
// the defaults below. Temperature is a pointer so an explicit 0.0 stays
// distinguishable from unset.
type Options struct {
	Model         string
	Temperature   *float64
	MaxTokens     int
	SystemMessage string
	Debug         bool
}

const (
	DefaultModel       = "microsoft/mai-ds-r1:free"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// Temp wraps a literal sampling temperature for Options.
func Temp(t float64) *float64 { return &t }

// DefaultOptions returns the standard generation parameters.
func DefaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		Temperature: Temp(DefaultTemperature),
		MaxTokens:   DefaultMaxTokens,
	}
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Temperature == nil {
		o.Temperature = Temp(DefaultTemperature)
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// RequestError signals a failed service call (network, auth, timeout or
// non-2xx status). It is never retried inside the client; retry policy
// lives in the pipeline.
type RequestError struct {
	Status int
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion request failed: %v", e.Err)
	}
	return fmt.Sprintf("completion request failed: status %d: %s", e.Status, e.Body)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Completer is the generation service seam: it sends a textual prompt
// plus parameters and returns raw model text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Client talks to an OpenRouter-compatible chat-completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithURL is used by tests and self-hosted gateways.
func NewClientWithURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the generated text. The response
// shape may vary between chat-style and flat text choices; both are
// accepted.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	opts = opts.withDefaults()

	messages := []chatMessage{}
	if opts.SystemMessage != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.SystemMessage})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: *opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %v", err)
	}

	if opts.Debug {
		fmt.Printf("--- llm: sending request to model %s (prompt %d chars) ---\n", opts.Model, len(prompt))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{Err: err}
	}
	if resp.StatusCode >= 400 {
		return "", &RequestError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &RequestError{Err: fmt.Errorf("decoding response: %v", err)}
	}
	return extractText(parsed), nil
}

func extractText(resp chatResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	choice := resp.Choices[0]
	if choice.Message.Content != "" {
		return choice.Message.Content
	}
	return choice.Text
}
