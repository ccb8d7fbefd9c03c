package generate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"jsa/api/internal/jsa"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
	temperature    = 0.1
)

const systemPrompt = `You are a senior HSE (health, safety and environment) expert for heavy industrial sites.
Generate a comprehensive Job Safety Analysis for the job title provided.

RULES:
1. Output strictly valid JSON matching the schema provided.
2. Hazards: exactly 12, specific industrial risks with OSHA/NIOSH exposure limits where one exists.
3. Tools: exactly 8, professional grade, with real brand/model examples.
4. Controls: exactly 8 preventive measures, each typed PPE, PROCEDURE or STANDARD; give the standard reference or an empty string.
5. Steps: exactly 12 sequential work steps numbered 1 to 12; hazardRef names the hazard a step exposes, or is empty.
6. Risk factors are integers from 1 to 5.
7. Translate the title accurately into English, French and Arabic.
8. Be technical, formal and industrially precise.`

// OpenAIConfig configures the chat completion generator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI drafts documents with a JSON-schema constrained chat completion.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI returns nil when no API key is configured.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (g *OpenAI) Generate(ctx context.Context, jobTitle string, lang jsa.Language) (jsa.Document, error) {
	if g == nil {
		return jsa.Document{}, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(jobTitle, lang)),
		},
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "jsa_document",
					Description: openai.String("Job Safety Analysis draft"),
					Schema:      draftSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return jsa.Document{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return jsa.Document{}, fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}
	log.Printf("generate: model=%s title=%q took=%s", g.model, jobTitle, time.Since(started).Round(time.Millisecond))
	return ParseDraft(resp.Choices[0].Message.Content)
}

func userPrompt(jobTitle string, lang jsa.Language) string {
	return fmt.Sprintf("Generate a full industrial JSA for this task: %q. Technical depth: high. Language context: %s.", jobTitle, lang)
}

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

var (
	str     = map[string]any{"type": "string"}
	integer = map[string]any{"type": "integer"}
	risk    = object([]string{"likelihood", "severity", "score", "level"}, map[string]any{
		"likelihood": integer,
		"severity":   integer,
		"score":      integer,
		"level":      map[string]any{"type": "string", "enum": []string{"LOW", "MEDIUM", "HIGH", "EXTREME"}},
	})
)

var draftSchema = object(
	[]string{"title", "category", "hazards", "tools", "controls", "steps", "initialRisk", "residualRisk", "requiredPermits"},
	map[string]any{
		"title":    object([]string{"en", "fr", "ar"}, map[string]any{"en": str, "fr": str, "ar": str}),
		"category": str,
		"hazards": arrayOf(object([]string{"id", "description", "limit"}, map[string]any{
			"id": str, "description": str, "limit": str,
		})),
		"tools": arrayOf(object([]string{"id", "name", "brandModel"}, map[string]any{
			"id": str, "name": str, "brandModel": str,
		})),
		"controls": arrayOf(object([]string{"id", "description", "type", "standardRef"}, map[string]any{
			"id":          str,
			"description": str,
			"type":        map[string]any{"type": "string", "enum": []string{"PPE", "PROCEDURE", "STANDARD"}},
			"standardRef": str,
		})),
		"steps": arrayOf(object([]string{"id", "description", "hazardRef"}, map[string]any{
			"id": integer, "description": str, "hazardRef": str,
		})),
		"initialRisk":     risk,
		"residualRisk":    risk,
		"requiredPermits": arrayOf(str),
	},
)
