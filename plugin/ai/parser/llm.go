package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/hrygo/appointment-assistant/internal/errors"
)

// Extraction is the structured appointment read the external model returns.
// It is used only when complete and well-typed; anything else makes the
// parser fall back to the rule pipeline.
type Extraction struct {
	Title           string
	Start           time.Time
	End             time.Time
	DateOnly        bool
	DurationMinutes int
}

// ExtractorConfig holds the settings for the OpenAI-compatible extractor.
type ExtractorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds the extraction call; expired calls fall back to rules.
	Timeout time.Duration
}

const defaultExtractTimeout = 10 * time.Second

// OpenAIExtractor asks an OpenAI-compatible model for structured appointment
// fields. Temperature is pinned to zero and the output is constrained by a
// strict JSON schema to keep the result machine-checkable.
type OpenAIExtractor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIExtractor creates the extractor. It returns nil when no API key is
// configured so callers can wire "no extractor" without a separate flag.
func NewOpenAIExtractor(cfg ExtractorConfig) *OpenAIExtractor {
	if cfg.APIKey == "" {
		return nil
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	return &OpenAIExtractor{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}
}

// Extract implements Extractor. Every failure path returns an error and no
// partial result; the caller absorbs it silently.
func (e *OpenAIExtractor) Extract(ctx context.Context, text string, now time.Time) (*Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   200,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(extractSystemPrompt, now.Format(time.RFC3339)),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "appointment_extraction",
				Strict: true,
				Schema: extractionJSONSchema,
			},
		},
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)
	if err != nil {
		slog.Debug("llm extraction request failed",
			"error", err,
			"latency_ms", latency.Milliseconds())
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "llm request timed out").
				WithContext("model", e.model)
		case errors.Is(err, context.Canceled):
			return nil, apperrors.ContextCanceled(err)
		default:
			return nil, apperrors.Wrap(err, apperrors.ErrCodeLLMUnavailable, "llm request failed").
				WithContext("model", e.model)
		}
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.LLMUnavailable("empty response from llm")
	}

	ext, err := parseExtractionResponse(resp.Choices[0].Message.Content)
	if err != nil {
		slog.Debug("llm extraction response rejected", "error", err)
		return nil, err
	}

	slog.Debug("llm extraction completed",
		"title", ext.Title,
		"start", ext.Start,
		"date_only", ext.DateOnly,
		"latency_ms", latency.Milliseconds(),
		"tokens", resp.Usage.TotalTokens)
	return ext, nil
}

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// parseExtractionResponse validates the raw model output into an Extraction.
func parseExtractionResponse(content string) (*Extraction, error) {
	content = strings.TrimSpace(content)
	if m := codeFenceRe.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	var raw struct {
		Title           string `json:"title"`
		Start           string `json:"start"`
		End             string `json:"end"`
		DateOnly        bool   `json:"date_only"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}
	if raw.Start == "" || raw.End == "" {
		return nil, fmt.Errorf("incomplete extraction: missing start or end")
	}

	start, err := parseISOInstant(raw.Start)
	if err != nil {
		return nil, fmt.Errorf("bad start instant: %w", err)
	}
	end, err := parseISOInstant(raw.End)
	if err != nil {
		return nil, fmt.Errorf("bad end instant: %w", err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("extraction interval is not positive")
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = "appointment"
	}
	duration := raw.DurationMinutes
	if duration <= 0 {
		duration = int(end.Sub(start).Minutes())
	}

	return &Extraction{
		Title:           title,
		Start:           start,
		End:             end,
		DateOnly:        raw.DateOnly,
		DurationMinutes: duration,
	}, nil
}

// parseISOInstant accepts RFC3339 with or without an offset.
func parseISOInstant(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized instant %q", s)
}

const extractSystemPrompt = `You extract structured appointment information from a user's message.
Respond with a single JSON object only.
Fields:
- title: short description of the appointment
- start: ISO 8601 datetime for when the appointment starts
- end: ISO 8601 datetime for when the appointment ends
- duration_minutes: integer duration in minutes
- date_only: true when the user clearly gave only a date and no time;
  still fill start/end with a reasonable default time.
Assume the current datetime is %s. Use it to interpret words like "today" or "tomorrow".`

// extractionJSONSchema constrains the model output. Strict mode plus
// additionalProperties=false prevents hallucinated fields.
var extractionJSONSchema = &jsonSchema{
	Type: "object",
	Properties: map[string]*jsonSchema{
		"title":            {Type: "string", Description: "Short appointment description"},
		"start":            {Type: "string", Description: "ISO 8601 start datetime"},
		"end":              {Type: "string", Description: "ISO 8601 end datetime"},
		"duration_minutes": {Type: "integer", Description: "Duration in minutes"},
		"date_only":        {Type: "boolean", Description: "True when no explicit time was given"},
	},
	Required:             []string{"title", "start", "end", "duration_minutes", "date_only"},
	AdditionalProperties: false,
}

// jsonSchema implements json.Marshaler for OpenAI's JSON Schema format.
type jsonSchema struct {
	Type                 string                 `json:"type"`
	Properties           map[string]*jsonSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Description          string                 `json:"description,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties"`
}

func (s *jsonSchema) MarshalJSON() ([]byte, error) {
	type alias jsonSchema
	return json.Marshal((*alias)(s))
}
