package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flowiq/flowiq-api/internal/config"
	"github.com/flowiq/flowiq-api/internal/generation"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

//go:embed insight_prompt.tmpl
var defaultPromptTemplate string

const (
	// defaultMaxRetries bounds transient-failure retries when the
	// configured value is unusable.
	defaultMaxRetries = 3

	// retryBaseDelay is the initial backoff interval between retries.
	retryBaseDelay = 2 * time.Second
)

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to write insight narratives from history summaries.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains AI-specific configuration
	config config.AIConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new instance of GeminiGenerator with the
// provided dependencies. When cfg.PromptTemplatePath is empty the embedded
// default template is used.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.AIConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	templateContent := defaultPromptTemplate
	if cfg.PromptTemplatePath != "" {
		raw, err := os.ReadFile(cfg.PromptTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
		}
		templateContent = string(raw)
	}

	promptTemplate, err := template.New("insight").Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger:         logger,
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// GenerateInsight writes a narrative over the provided history summary by
// rendering the prompt template and calling the Gemini API with retries.
func (g *GeminiGenerator) GenerateInsight(
	ctx context.Context,
	req generation.InsightRequest,
	userID uuid.UUID,
) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("user ID cannot be empty")
	}

	prompt, err := g.buildPrompt(ctx, req)
	if err != nil {
		return "", err
	}

	schema, err := g.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}

	content := composeContent(schema)
	g.logger.InfoContext(ctx, "insight narrative generated",
		"user_id", userID.String(),
		"narrative_length", len(content),
		"highlights", len(schema.Highlights))

	return content, nil
}

// buildPrompt renders the prompt template over the request's history
// summary. Requests with nothing to narrate are rejected with
// ErrEmptyHistory.
func (g *GeminiGenerator) buildPrompt(
	ctx context.Context,
	req generation.InsightRequest,
) (string, error) {
	if req.Empty() {
		return "", ErrEmptyHistory
	}

	data := newPromptData(req)

	g.logger.DebugContext(ctx, "rendering prompt from template",
		"cycle_count", req.CycleCount,
		"template_name", g.promptTemplate.Name())

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := promptBuffer.String()
	g.logger.DebugContext(ctx, "prompt rendered successfully",
		"prompt_length", len(prompt))

	return prompt, nil
}

// newPromptData pre-formats the request figures for the template. Lines
// whose data is missing stay empty so the template drops them.
func newPromptData(req generation.InsightRequest) promptData {
	data := promptData{
		CycleCount:     req.CycleCount,
		ShortestLength: req.MinCycleLength,
		LongestLength:  req.MaxCycleLength,
		MoodTrend:      req.MoodTrend,
	}

	if req.CycleCount > 0 {
		data.MeanLength = strconv.FormatFloat(req.MeanCycleLength, 'f', 1, 64)
	}
	if !req.LastStartDate.IsZero() {
		data.LastStart = req.LastStartDate.Format("2006-01-02")
	}
	if !req.PredictedStart.IsZero() {
		data.PredictedStart = req.PredictedStart.Format("2006-01-02")
		data.Confidence = strconv.FormatFloat(req.Confidence*100, 'f', 0, 64) + "%"
	}
	for _, s := range req.TopSymptoms {
		data.Symptoms = append(data.Symptoms, fmt.Sprintf("%s (%d times)", s.Name, s.Count))
	}

	return data
}

// callGeminiWithRetry calls the Gemini API, retrying transient failures
// with exponential backoff. Permanent failures (blocked content, malformed
// responses) are returned immediately; exhausted retries surface as
// generation.ErrTransientFailure.
func (g *GeminiGenerator) callGeminiWithRetry(ctx context.Context, prompt string) (*ResponseSchema, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default",
			"configured", g.config.MaxRetries,
			"default", defaultMaxRetries)
		maxRetries = defaultMaxRetries
	}

	var schema *ResponseSchema
	attempt := 0

	operation := func() error {
		attempt++
		g.logger.InfoContext(ctx, "calling Gemini API",
			"attempt", attempt,
			"max_attempts", maxRetries+1,
			"model", g.model)

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
			})
		if err != nil {
			// Network and server-side errors may clear up on retry.
			return err
		}

		parsed, err := classifyResponse(resp)
		if err != nil {
			return backoff.Permanent(err)
		}

		schema = parsed
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = retryBaseDelay

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(maxRetries)), ctx),
		func(err error, next time.Duration) {
			g.logger.WarnContext(ctx, "Gemini API call failed, retrying",
				"error", err,
				"next_attempt_in", next)
		},
	)
	if err != nil {
		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "Gemini API returned a permanent error",
				"error", err)
			return nil, err
		}
		g.logger.ErrorContext(ctx, "Gemini API call failed after retries",
			"error", err,
			"attempts", attempt)
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	g.logger.InfoContext(ctx, "Gemini API call successful",
		"attempts", attempt)
	return schema, nil
}

// classifyResponse validates an API response and parses its JSON payload.
// The safety check runs before the content checks: blocked candidates
// usually carry no content at all.
func classifyResponse(resp *genai.GenerateContentResponse) (*ResponseSchema, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: generation stopped by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	var schema ResponseSchema
	if err := json.Unmarshal([]byte(extractJSON(text.String())), &schema); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	if strings.TrimSpace(schema.Narrative) == "" {
		return nil, fmt.Errorf("%w: response has no narrative", generation.ErrInvalidResponse)
	}

	return &schema, nil
}

// extractJSON strips the markdown code fence some models wrap around JSON
// output even when a JSON response type is requested.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	return strings.TrimSpace(trimmed)
}

// composeContent flattens the response schema into the stored narrative,
// appending highlights as a bullet list when present.
func composeContent(schema *ResponseSchema) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(schema.Narrative))

	for _, highlight := range schema.Highlights {
		highlight = strings.TrimSpace(highlight)
		if highlight == "" {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(highlight)
	}

	return b.String()
}
