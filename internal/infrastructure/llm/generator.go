// Package llm adapts the external generative service to the pipeline's
// Generator port and owns the retry and fallback policy around it.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// OpenAIGenerator produces article copy via an OpenAI-compatible API.
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

var _ ports.Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a client from configuration.
func NewOpenAIGenerator(cfg config.GenerationConfig) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	return &OpenAIGenerator{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
	}
}

type generatedPayload struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Confidence float64 `json:"confidence"`
}

// Generate asks the model for a JSON article and classifies failures into
// the transient/permanent taxonomy the retry policy acts on.
func (g *OpenAIGenerator) Generate(ctx context.Context, raw domain.RawItem, hood domain.Neighborhood, category domain.Category) (ports.GeneratedContent, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(raw, hood, category)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return ports.GeneratedContent{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return ports.GeneratedContent{}, &domain.TransientError{Op: "generate", Err: errors.New("empty completion")}
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return ports.GeneratedContent{}, &domain.TransientError{Op: "decode completion", Err: err}
	}
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Body) == "" {
		return ports.GeneratedContent{}, &domain.TransientError{Op: "generate", Err: errors.New("incomplete article payload")}
	}

	meta := domain.NewMetadata()
	meta.Model = g.model
	meta.SourceURL = raw.URL

	return ports.GeneratedContent{
		Title:      strings.TrimSpace(payload.Title),
		Body:       strings.TrimSpace(payload.Body),
		Confidence: domain.ClampConfidence(payload.Confidence),
		Origin:     domain.OriginAuto,
		Metadata:   meta,
	}, nil
}

func buildPrompt(raw domain.RawItem, hood domain.Neighborhood, category domain.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short %s news article for a hyperlocal portal.\n", category)
	if hood.Name != "" {
		fmt.Fprintf(&b, "Target neighborhood: %s.\n", hood.Name)
	}
	fmt.Fprintf(&b, "Source title: %s\nSource text: %s\n", raw.Title, raw.Body)
	b.WriteString(`Respond with a JSON object: {"title": ..., "body": ..., "confidence": 0..1}. ` +
		"Confidence estimates how faithful the article is to the source.")
	return b.String()
}

// classify maps client errors onto the retry taxonomy. Rate limits, server
// errors, timeouts, and network trouble are transient; every other API
// rejection is permanent.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return &domain.TransientError{Op: "generate", Err: err}
		}
		return &domain.PermanentError{Op: "generate", Err: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.TransientError{Op: "generate", Err: err}
	}
	return &domain.TransientError{Op: "generate", Err: err}
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You write short, factual hyperlocal news articles."
	}
	return prompt
}
