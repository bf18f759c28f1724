// AngelaMos | 2026
// openai.go

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/carterperez-dev/journal/internal/config"
)

var ErrEmptyOutput = errors.New("model returned no text")

type OpenAIModel struct {
	client          openai.Client
	model           string
	maxOutputTokens int64
}

func NewOpenAIModel(cfg config.LLMConfig) *OpenAIModel {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIModel{
		client:          openai.NewClient(opts...),
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
}

func (m *OpenAIModel) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := m.client.Responses.New(ctx, m.params(p))
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", p.Purpose, err)
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", fmt.Errorf("openai %s: %w", p.Purpose, ErrEmptyOutput)
	}

	return text, nil
}

func (m *OpenAIModel) params(p Prompt) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: m.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(
					p.Input,
					responses.EasyInputMessageRoleUser,
				),
			},
		},
	}

	if p.Instructions != "" {
		params.Instructions = openai.String(p.Instructions)
	}

	maxTokens := p.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = m.maxOutputTokens
	}
	if maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(maxTokens)
	}

	if p.Schema != nil {
		name := p.SchemaName
		if name == "" {
			name = string(p.Purpose)
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   name,
					Schema: p.Schema,
					Strict: openai.Bool(true),
					Type:   "json_schema",
				},
			},
		}
	}

	return params
}
