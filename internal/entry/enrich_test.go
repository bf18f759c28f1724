// AngelaMos | 2026
// enrich_test.go

package entry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/journal/internal/llm"
)

// scriptedModel answers each prompt purpose with a canned reply.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[llm.Purpose]string
	errs    map[llm.Purpose]error
	prompts []llm.Prompt
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		replies: map[llm.Purpose]string{
			llm.PurposeEmotions:        `{"happiness": 0.85, "connection": 0.4, "productivity": 0.9}`,
			llm.PurposeLongSummary:     "  Felt great and finished the report.  ",
			llm.PurposeObservation:     "You sound more energized than last week.",
			llm.PurposeRecommendations: "Celebrate the win\nTake a walk outside\nPlan tomorrow's top task",
		},
		errs: map[llm.Purpose]error{},
	}
}

func (m *scriptedModel) Generate(_ context.Context, p llm.Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, p)
	if err := m.errs[p.Purpose]; err != nil {
		return "", err
	}
	return m.replies[p.Purpose], nil
}

func (m *scriptedModel) calls() []llm.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Prompt(nil), m.prompts...)
}

func (m *scriptedModel) prompt(p llm.Purpose) (llm.Prompt, bool) {
	for _, c := range m.calls() {
		if c.Purpose == p {
			return c, true
		}
	}
	return llm.Prompt{}, false
}

func TestEnrichHappyPath(t *testing.T) {
	model := newScriptedModel()
	history := []HistoryItem{{
		CreatedAt:   time.Date(2026, 2, 1, 20, 30, 0, 0, time.UTC),
		LongSummary: "Tired after a long week.",
		Emotions:    Emotions{Happiness: 0.3, Connection: 0.5, Productivity: 0.2},
	}}
	at := time.Date(2026, 2, 2, 21, 0, 0, 0, time.UTC)

	out, err := NewEnricher(model).Enrich(
		context.Background(),
		"Today I felt great and got a lot done",
		history,
		at,
	)
	require.NoError(t, err)

	assert.Equal(t, "Today I felt great and got a...", out.ShortSummary)
	assert.Equal(t, "Felt great and finished the report.", out.LongSummary)
	assert.Greater(t, out.Emotions.Happiness, 0.4)
	assert.Greater(t, out.Emotions.Productivity, 0.4)
	assert.Len(t, out.Recommendations, RecommendationCount)
	assert.Len(t, model.calls(), 4)

	emotions, ok := model.prompt(llm.PurposeEmotions)
	require.True(t, ok)
	assert.NotNil(t, emotions.Schema)

	obs, ok := model.prompt(llm.PurposeObservation)
	require.True(t, ok)
	assert.Contains(t, obs.Input, "Tired after a long week.")
	assert.Contains(t, obs.Input, "Most recent entry (02/02/26 09:00 PM)")
	assert.Contains(t, obs.Input, "Today I felt great and got a lot done")
	assert.Less(t,
		strings.Index(obs.Input, "Tired after a long week."),
		strings.Index(obs.Input, "Most recent entry"),
	)
}

func TestEnrichRecordsContextEvent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	history := []HistoryItem{{
		CreatedAt:   time.Date(2026, 2, 1, 20, 30, 0, 0, time.UTC),
		LongSummary: "Tired after a long week.",
	}}
	_, err := NewEnricher(newScriptedModel()).Enrich(
		context.Background(),
		"Quiet day",
		history,
		time.Date(2026, 2, 2, 21, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	var enrich sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "entry.enrich" {
			enrich = s
		}
	}
	require.NotNil(t, enrich)

	events := enrich.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "entry.context_built", events[0].Name)

	attrs := map[string]int64{}
	for _, kv := range events[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInt64()
	}
	assert.Equal(t, int64(1), attrs["prior_entries"])
	assert.Positive(t, attrs["context_bytes"])
}

func TestEnrichFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *scriptedModel)
		wantErr error
		maxCall int
	}{
		{
			name:    "emotion output without json",
			mutate:  func(m *scriptedModel) { m.replies[llm.PurposeEmotions] = "I feel you are happy" },
			wantErr: llm.ErrNoJSON,
			maxCall: 2,
		},
		{
			name:    "emotion missing a key",
			mutate:  func(m *scriptedModel) { m.replies[llm.PurposeEmotions] = `{"happiness":0.5,"connection":0.5}` },
			wantErr: llm.ErrSchemaViolation,
			maxCall: 2,
		},
		{
			name:    "emotion out of range",
			mutate:  func(m *scriptedModel) { m.replies[llm.PurposeEmotions] = `{"happiness":1.5,"connection":0.5,"productivity":0}` },
			wantErr: llm.ErrSchemaViolation,
			maxCall: 2,
		},
		{
			name:    "long summary call fails",
			mutate:  func(m *scriptedModel) { m.errs[llm.PurposeLongSummary] = errors.New("timeout") },
			maxCall: 2,
		},
		{
			name:    "two recommendations",
			mutate:  func(m *scriptedModel) { m.replies[llm.PurposeRecommendations] = "Rest\n\nHydrate\n" },
			wantErr: llm.ErrSchemaViolation,
			maxCall: 4,
		},
		{
			name:    "observation call fails",
			mutate:  func(m *scriptedModel) { m.errs[llm.PurposeObservation] = errors.New("503") },
			maxCall: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newScriptedModel()
			tt.mutate(model)

			out, err := NewEnricher(model).Enrich(context.Background(), "text", nil, time.Now())
			require.Error(t, err)
			assert.Nil(t, out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.LessOrEqual(t, len(model.calls()), tt.maxCall)
		})
	}
}

func TestParseEmotionsReportsEveryProblem(t *testing.T) {
	_, err := ParseEmotions(`{"happiness": -0.1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "happiness out of range")
	assert.Contains(t, err.Error(), "connection missing")
	assert.Contains(t, err.Error(), "productivity missing")

	e, err := ParseEmotions("Here: {\"happiness\":0,\"connection\":1,\"productivity\":0.5} done")
	require.NoError(t, err)
	assert.Equal(t, Emotions{Happiness: 0, Connection: 1, Productivity: 0.5}, e)

	e, err = ParseEmotions("{\"happiness\":0.9,\"connection\":0.5,\"productivity\":0.8}\nScores are on the {0..1} scale.")
	require.NoError(t, err)
	assert.Equal(t, Emotions{Happiness: 0.9, Connection: 0.5, Productivity: 0.8}, e)
}

func TestSplitRecommendationsKeepsLeadingNumbers(t *testing.T) {
	recs, err := SplitRecommendations("3.5 liters of water a day\nWalk outside\n2. Call a friend")
	require.NoError(t, err)
	assert.Equal(t, Recommendations{"3.5 liters of water a day", "Walk outside", "Call a friend"}, recs)
}

func TestShortSummary(t *testing.T) {
	assert.Equal(t, "short...", ShortSummary("short"))
	assert.Equal(t, "short...", ShortSummary("  short \n"))
	assert.Equal(t, strings.Repeat("a", 28)+"...", ShortSummary(strings.Repeat("a", 28)))
	assert.Equal(t, strings.Repeat("a", 28)+"...", ShortSummary(strings.Repeat("a", 29)))
	assert.Equal(t, strings.Repeat("é", 28)+"...", ShortSummary(strings.Repeat("é", 40)))
}
