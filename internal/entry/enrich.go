// AngelaMos | 2026
// enrich.go

package entry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/journal/internal/core"
	"github.com/carterperez-dev/journal/internal/llm"
)

const shortSummaryRunes = 28

const emotionsInstructions = `You score personal journal entries.
Return only a JSON object with the keys "happiness", "connection" and "productivity".
Each value is a floating point intensity between 0 and 1.

happiness: well-being and contentment, joy, satisfaction, fulfillment.
connection: feeling emotionally or socially linked to other people.
productivity: getting things done efficiently, the quality and quantity of output.`

const longSummaryInstructions = `Summarize the journal entry you are given.
Cover every event and every feeling it mentions and leave none out.
Use at most 200 characters.`

const observationInstructions = `You are given a person's journal history ending with their most recent entry.
Write exactly one sentence noting a trend or change in how they are doing,
relative to the most recent entry. Be warm and specific.`

const recommendationsInstructions = `You are given a person's journal history ending with their most recent entry.
Suggest exactly three short, practical recommendations for them.
Put each recommendation on its own line with no numbering, bullets or blank lines.`

var emotionsSchema = llm.MustGenerateSchema[Emotions]()

// Enrichment holds every field derived from a new entry's text.
type Enrichment struct {
	ShortSummary    string
	LongSummary     string
	Emotions        Emotions
	Observation     string
	Recommendations Recommendations
}

type Enricher struct {
	model llm.Model
}

func NewEnricher(model llm.Model) *Enricher {
	return &Enricher{model: model}
}

// Enrich derives the annotations for text. Emotion scoring and the long
// summary run concurrently; the observation and recommendations then read
// the full history including the new entry.
func (e *Enricher) Enrich(
	ctx context.Context,
	text string,
	history []HistoryItem,
	at time.Time,
) (*Enrichment, error) {
	ctx, span := core.StartSpan(ctx, "entry.enrich")
	defer span.End()

	out := &Enrichment{ShortSummary: ShortSummary(text)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emotions, err := e.scoreEmotions(gctx, text)
		if err != nil {
			return err
		}
		out.Emotions = emotions
		return nil
	})
	g.Go(func() error {
		summary, err := e.model.Generate(gctx, llm.Prompt{
			Purpose:      llm.PurposeLongSummary,
			Instructions: longSummaryInstructions,
			Input:        text,
		})
		if err != nil {
			return fmt.Errorf("long summary: %w", err)
		}
		out.LongSummary = strings.TrimSpace(summary)
		return nil
	})
	if err := g.Wait(); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	journal, err := BuildContext(history, text, out.Emotions, at)
	if err != nil {
		return nil, err
	}
	core.AddSpanEvent(ctx, "entry.context_built",
		attribute.Int("prior_entries", len(history)),
		attribute.Int("context_bytes", len(journal)),
	)

	observation, err := e.model.Generate(ctx, llm.Prompt{
		Purpose:      llm.PurposeObservation,
		Instructions: observationInstructions,
		Input:        journal,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("observation: %w", err)
	}
	out.Observation = strings.TrimSpace(observation)

	recs, err := e.model.Generate(ctx, llm.Prompt{
		Purpose:      llm.PurposeRecommendations,
		Instructions: recommendationsInstructions,
		Input:        journal,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	out.Recommendations, err = SplitRecommendations(recs)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return out, nil
}

func (e *Enricher) scoreEmotions(ctx context.Context, text string) (Emotions, error) {
	raw, err := e.model.Generate(ctx, llm.Prompt{
		Purpose:      llm.PurposeEmotions,
		Instructions: emotionsInstructions,
		Input:        "Journal entry: " + text,
		Schema:       emotionsSchema,
		SchemaName:   "Emotions",
	})
	if err != nil {
		return Emotions{}, fmt.Errorf("emotions: %w", err)
	}

	emotions, err := ParseEmotions(raw)
	if err != nil {
		return Emotions{}, fmt.Errorf("emotions: %w", err)
	}

	return emotions, nil
}

type emotionScores struct {
	Happiness    *float64 `json:"happiness"`
	Connection   *float64 `json:"connection"`
	Productivity *float64 `json:"productivity"`
}

// ParseEmotions requires all three scores, each within [0,1].
func ParseEmotions(text string) (Emotions, error) {
	scores, err := llm.DecodeValidated(text, checkScores)
	if err != nil {
		return Emotions{}, err
	}

	return Emotions{
		Happiness:    *scores.Happiness,
		Connection:   *scores.Connection,
		Productivity: *scores.Productivity,
	}, nil
}

func checkScores(s emotionScores) error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"happiness", s.Happiness},
		{"connection", s.Connection},
		{"productivity", s.Productivity},
	}

	var errs []error
	for _, f := range fields {
		switch {
		case f.value == nil:
			errs = append(errs, fmt.Errorf("%s missing", f.name))
		case math.IsNaN(*f.value) || *f.value < 0 || *f.value > 1:
			errs = append(errs, fmt.Errorf("%s out of range: %v", f.name, *f.value))
		}
	}

	return errors.Join(errs...)
}

func SplitRecommendations(text string) (Recommendations, error) {
	items, err := llm.SplitLines(text, RecommendationCount)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	return Recommendations(items), nil
}

// ShortSummary is the display prefix of an entry, always ending in "...".
func ShortSummary(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > shortSummaryRunes {
		runes = runes[:shortSummaryRunes]
	}
	return string(runes) + "..."
}

// BuildContext renders prior entries oldest first followed by the new one.
func BuildContext(
	history []HistoryItem,
	text string,
	emotions Emotions,
	at time.Time,
) (string, error) {
	var b strings.Builder

	for _, h := range history {
		scores, err := json.Marshal(h.Emotions)
		if err != nil {
			return "", fmt.Errorf("build context: %w", err)
		}
		fmt.Fprintf(&b, "Entry date: %s\nEmotions: %s\nSummary: %s\n\n",
			h.CreatedAt.UTC().Format(detailDateLayout),
			scores,
			h.LongSummary,
		)
	}

	scores, err := json.Marshal(emotions)
	if err != nil {
		return "", fmt.Errorf("build context: %w", err)
	}
	fmt.Fprintf(&b, "Most recent entry (%s)\nEmotions: %s\nText: %s\n",
		at.UTC().Format(detailDateLayout),
		scores,
		text,
	)

	return b.String(), nil
}
