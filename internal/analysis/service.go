// AngelaMos | 2026
// service.go

package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/journal/internal/core"
	"github.com/carterperez-dev/journal/internal/entry"
	"github.com/carterperez-dev/journal/internal/llm"
)

// TrendPhrase asks for the chart series alongside the reply.
const TrendPhrase = "analyze trends in my journal"

const NoEntriesReply = "You need at least one journal entry before I can analyze " +
	"your journal. Write your first entry and come back to talk it through."

const (
	summaryDateLayout = "01/02/06"
	seriesDateLayout  = "2006-01-02"
)

const analysisInstructions = `You are analyzing a user's journaling data. Keep a helpful and caring attitude.
You are an AI but you care about the person you are talking to.
Give a thoughtful, relevant and concise response based on the user's journal summaries,
the previous messages and their current message. Be as helpful and analytical as possible,
but focus on positivity and always try to help the user.
If you see seriously concerning behavior, remind the user that in an emergency they should
call 911 and seek professional assistance. They are not alone.`

type HistorySource interface {
	History(ctx context.Context, owner string) ([]entry.HistoryItem, error)
}

// Result is a reply plus, for trend requests, one series point per entry.
type Result struct {
	Reply    string
	Emotions []EmotionPoint
	Times    []TimePoint
}

type Service struct {
	history HistorySource
	model   llm.Model
}

func NewService(history HistorySource, model llm.Model) *Service {
	return &Service{history: history, model: model}
}

func (s *Service) Analyze(
	ctx context.Context,
	owner string,
	messages []Message,
	userMessage string,
) (*Result, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, fmt.Errorf("analyze: empty message: %w", core.ErrInvalidInput)
	}
	for _, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return nil, fmt.Errorf("analyze: role %q: %w", m.Role, core.ErrInvalidInput)
		}
	}

	ctx, span := core.StartSpan(ctx, "analysis.analyze",
		attribute.Int("conversation.messages", len(messages)),
	)
	defer span.End()

	history, err := s.history.History(ctx, owner)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	if len(history) == 0 {
		return &Result{Reply: NoEntriesReply}, nil
	}

	reply, err := s.model.Generate(ctx, llm.Prompt{
		Purpose:      llm.PurposeAnalysis,
		Instructions: analysisInstructions,
		Input:        BuildPrompt(history, messages, userMessage),
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	res := &Result{Reply: strings.TrimSpace(reply)}
	if IsTrendRequest(userMessage) {
		res.Emotions, res.Times = Series(history)
	}

	return res, nil
}

func IsTrendRequest(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), TrendPhrase)
}

// BuildPrompt lays out the summaries, then the transcript, then the question.
func BuildPrompt(
	history []entry.HistoryItem,
	messages []Message,
	userMessage string,
) string {
	var b strings.Builder

	b.WriteString("These are summaries of the users journal entries:\n")
	for _, h := range history {
		fmt.Fprintf(&b, "Entry date: %s\nSummary: %s\n\n",
			h.CreatedAt.UTC().Format(summaryDateLayout), h.LongSummary)
	}

	b.WriteString("\nPrevious messages in this conversation:\n")
	for _, m := range messages {
		speaker := "User"
		if m.Role == RoleAssistant {
			speaker = "AI"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}

	fmt.Fprintf(&b, "\nNow the user is asking:\n\"%s\"", userMessage)

	return b.String()
}

// Series turns stored entries into the two chart series, oldest first.
func Series(history []entry.HistoryItem) ([]EmotionPoint, []TimePoint) {
	emotions := make([]EmotionPoint, 0, len(history))
	times := make([]TimePoint, 0, len(history))

	for _, h := range history {
		at := h.CreatedAt.UTC()
		date := at.Format(seriesDateLayout)

		emotions = append(emotions, EmotionPoint{
			Date:         date,
			Happiness:    h.Emotions.Happiness,
			Connection:   h.Emotions.Connection,
			Productivity: h.Emotions.Productivity,
		})
		times = append(times, TimePoint{
			Date:      date,
			TimeValue: timeOfDay(at),
		})
	}

	return emotions, times
}

func timeOfDay(t time.Time) float64 {
	return float64(t.Hour()) +
		float64(t.Minute())/60 +
		float64(t.Second())/3600
}
