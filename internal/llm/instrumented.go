// AngelaMos | 2026
// instrumented.go

package llm

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/journal/internal/core"
)

type InstrumentedModel struct {
	next    Model
	metrics *core.Metrics
	logger  *slog.Logger
}

func NewInstrumentedModel(
	next Model,
	metrics *core.Metrics,
	logger *slog.Logger,
) *InstrumentedModel {
	return &InstrumentedModel{next: next, metrics: metrics, logger: logger}
}

func (m *InstrumentedModel) Generate(ctx context.Context, p Prompt) (string, error) {
	ctx, span := core.StartSpan(ctx, "llm.generate",
		attribute.String("llm.purpose", string(p.Purpose)),
		attribute.Bool("llm.structured", p.Schema != nil),
		attribute.Int("llm.input_chars", len(p.Input)),
	)
	defer span.End()

	start := time.Now()
	text, err := m.next.Generate(ctx, p)
	elapsed := time.Since(start)

	m.metrics.ObserveModelCall(string(p.Purpose), elapsed, err)

	if err != nil {
		core.SetSpanError(ctx, err)
		m.logger.ErrorContext(ctx, "model call failed",
			"purpose", p.Purpose,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.output_chars", len(text)))
	m.logger.DebugContext(ctx, "model call completed",
		"purpose", p.Purpose,
		"duration_ms", elapsed.Milliseconds(),
	)

	return text, nil
}
