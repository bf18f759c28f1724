// AngelaMos | 2026
// model.go

package llm

import (
	"context"
)

// Purpose labels a prompt for tracing and metrics.
type Purpose string

const (
	PurposeEmotions        Purpose = "emotions"
	PurposeLongSummary     Purpose = "long_summary"
	PurposeObservation     Purpose = "observation"
	PurposeRecommendations Purpose = "recommendations"
	PurposeAnalysis        Purpose = "analysis"
)

type Prompt struct {
	Purpose      Purpose
	Instructions string
	Input        string
	// Schema, when set, asks the model for strict JSON matching it.
	Schema          map[string]any
	SchemaName      string
	MaxOutputTokens int64
}

type Model interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(ctx context.Context, p Prompt) (string, error)

func (f ModelFunc) Generate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}
