// AngelaMos | 2026
// dto.go

package analysis

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"max=20000"`
}

type AnalyzeRequest struct {
	Messages    []Message `json:"messages"    validate:"required,max=200,dive"`
	UserMessage string    `json:"userMessage" validate:"required,max=4000"`
}

// EmotionPoint is one entry's scores on the emotion-over-time chart.
type EmotionPoint struct {
	Date         string  `json:"date"`
	Happiness    float64 `json:"happiness"`
	Connection   float64 `json:"connection"`
	Productivity float64 `json:"productivity"`
}

// TimePoint places one entry on the time-of-day chart, as fractional hours.
type TimePoint struct {
	Date      string  `json:"date"`
	TimeValue float64 `json:"timeValue"`
}

type AnalyzeResponse struct {
	AIResponse       string         `json:"aiResponse"`
	EmotionData      []EmotionPoint `json:"emotionData"`
	EntryHistoryData []TimePoint    `json:"entryHistoryData"`
}

type chunkEvent struct {
	Text string `json:"text"`
}

func ToAnalyzeResponse(res *Result) AnalyzeResponse {
	return AnalyzeResponse{
		AIResponse:       res.Reply,
		EmotionData:      res.Emotions,
		EntryHistoryData: res.Times,
	}
}
