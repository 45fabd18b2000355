// Package analysis turns a user prompt into a scored, timed model
// response: validate, build the typed prompt, call the inference client
// with at most one model fallback, then attach the confidence score and
// wall-clock processing time.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finadvisor/internal/observ"
)

// ErrInvalidRequest marks caller errors: no outbound call was made.
var ErrInvalidRequest = errors.New("invalid analysis request")

// FailedError is returned when the primary model and the configured
// fallback (if any) both failed.
type FailedError struct {
	ModelsTried []string
	Cause       error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("analysis failed after trying %s: %v", strings.Join(e.ModelsTried, ", "), e.Cause)
}

func (e *FailedError) Unwrap() error { return e.Cause }

// Request is one inbound analysis call. Immutable once constructed.
type Request struct {
	Prompt       string `json:"prompt"`
	AnalysisType string `json:"analysis_type"`
	MaxLength    int    `json:"max_length"`
}

// Result is the scored, timed response for a single request.
type Result struct {
	GeneratedText   string  `json:"generated_text"`
	ModelUsed       string  `json:"model_used"`
	ConfidenceScore float64 `json:"confidence_score"`
	ProcessingTime  float64 `json:"processing_time"` // seconds
}

// Generator is the inference dependency; satisfied by *inference.Client.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, maxLength int) (string, error)
}

type Orchestrator struct {
	gen            Generator
	model          string
	fallbackModel  string // empty disables fallback
	minResponseLen int
	score          Scorer
}

func NewOrchestrator(gen Generator, model, fallbackModel string, minResponseLen int, score Scorer) *Orchestrator {
	return &Orchestrator{
		gen:            gen,
		model:          model,
		fallbackModel:  fallbackModel,
		minResponseLen: minResponseLen,
		score:          score,
	}
}

// Analyze runs the single linear pipeline: validate, generate (primary
// model, then one fallback attempt), score, and time.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt must not be empty", ErrInvalidRequest)
	}
	if req.MaxLength <= 0 {
		return nil, fmt.Errorf("%w: max_length must be positive", ErrInvalidRequest)
	}

	start := time.Now()
	prompt := buildPrompt(req.Prompt, req.AnalysisType)

	models := []string{o.model}
	if o.fallbackModel != "" && o.fallbackModel != o.model {
		models = append(models, o.fallbackModel)
	}

	var lastErr error
	for _, model := range models {
		text, err := o.gen.Generate(ctx, prompt, model, req.MaxLength)
		if err == nil {
			text = cleanResponse(text, prompt)
			if len(text) < o.minResponseLen {
				err = fmt.Errorf("response too short (%d chars)", len(text))
			} else {
				observ.IncCounter("analysis_success_total", map[string]string{"model": model})
				elapsed := time.Since(start)
				observ.RecordDuration("analysis", elapsed, map[string]string{"model": model})
				return &Result{
					GeneratedText:   text,
					ModelUsed:       model,
					ConfidenceScore: o.score(text),
					ProcessingTime:  elapsed.Seconds(),
				}, nil
			}
		}
		lastErr = err
		observ.IncCounter("analysis_model_errors_total", map[string]string{"model": model})
		observ.Log("analysis_model_failed", map[string]any{
			"model": model,
			"error": err.Error(),
		})
	}

	return nil, &FailedError{ModelsTried: models, Cause: lastErr}
}

// cleanResponse trims the output and strips a leading echo of the prompt,
// which some completion models prepend to their generation.
func cleanResponse(text, prompt string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, prompt) {
		text = strings.TrimSpace(strings.TrimPrefix(text, prompt))
	}
	return text
}
