// Package inference is a stateless adapter to a hosted text-generation
// endpoint. It carries no retry or fallback logic of its own: model
// fallback is the orchestrator's decision.
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
)

// Error is a typed inference failure: transport error, non-2xx status,
// or a timeout on the configured deadline.
type Error struct {
	Model      string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("inference %s: %s (%v)", e.Model, e.Message, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference %s: HTTP %d: %s", e.Model, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("inference %s: %s", e.Model, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Client calls the hosted model endpoint with a bearer token read once
// from configuration at startup.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// generationParams picks request parameters by model family. Instruction
// models want low temperature; conversational ones need a pad token.
func generationParams(model string, maxLength int) map[string]any {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "flan-t5"):
		return map[string]any{
			"max_new_tokens":     maxLength,
			"temperature":        0.3,
			"do_sample":          true,
			"top_p":              0.9,
			"repetition_penalty": 1.1,
		}
	case strings.Contains(lower, "gpt"):
		return map[string]any{
			"max_new_tokens": maxLength,
			"temperature":    0.4,
			"top_p":          0.95,
			"do_sample":      true,
		}
	case strings.Contains(lower, "dialo"):
		return map[string]any{
			"max_length":   maxLength,
			"temperature":  0.7,
			"pad_token_id": 50256,
		}
	default:
		return map[string]any{
			"max_new_tokens": maxLength,
			"temperature":    0.5,
		}
	}
}

// Generate sends the prompt to the named model and returns the generated
// text. maxLength bounds the generated output in tokens.
func (c *Client) Generate(ctx context.Context, prompt, model string, maxLength int) (string, error) {
	payload := map[string]any{
		"inputs":     prompt,
		"parameters": generationParams(model, maxLength),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Model: model, Message: "encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+model, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Model: model, Message: "create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", &Error{Model: model, Message: "request timed out", Cause: ctx.Err()}
		}
		return "", &Error{Model: model, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &Error{Model: model, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(detail))}
	}

	text, err := parseGeneration(resp.Body)
	if err != nil {
		return "", &Error{Model: model, Message: "parse response", Cause: err}
	}
	return text, nil
}

// parseGeneration tolerates the upstream's two response shapes: a list of
// generation objects or a single object, keyed by generated_text,
// summary_text, or text.
func parseGeneration(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("empty generation list")
		}
		if text, ok := textField(list[0]); ok {
			return text, nil
		}
		return "", fmt.Errorf("no text field in generation")
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if text, ok := textField(obj); ok {
			return text, nil
		}
		return "", fmt.Errorf("no text field in generation")
	}

	return "", fmt.Errorf("unrecognized response shape")
}

func textField(m map[string]any) (string, bool) {
	for _, key := range []string{"generated_text", "summary_text", "text"} {
		if v, ok := m[key].(string); ok {
			return v, true
		}
	}
	return "", false
}
