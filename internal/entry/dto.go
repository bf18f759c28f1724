// AngelaMos | 2026
// dto.go

package entry

import (
	"time"

	"github.com/google/uuid"
)

const (
	listDateLayout   = "01/02/06"
	detailDateLayout = "01/02/06 03:04 PM"
)

type CreateEntryRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type DeleteEntryRequest struct {
	Text string `json:"text" validate:"required"`
}

type CreateEntryResponse struct {
	ID              uuid.UUID `json:"id"`
	EntryNumber     int       `json:"entryNumber"`
	DateTime        time.Time `json:"dateTime"`
	Observation     string    `json:"observation"`
	ShortSummary    string    `json:"shortSummary"`
	LongSummary     string    `json:"longSummary"`
	Recommendations []string  `json:"recommendations"`
	Happiness       float64   `json:"happiness"`
	Connection      float64   `json:"connection"`
	Productivity    float64   `json:"productivity"`
}

type ListEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	FormattedDate string    `json:"formattedDate"`
	ShortSummary  string    `json:"shortSummary"`
}

type ListEntriesResponse struct {
	Entries []ListEntryResponse `json:"entries"`
}

type EntryResponse struct {
	FormattedDateTime string   `json:"formattedDateTime"`
	Text              string   `json:"text"`
	LongSummary       string   `json:"longSummary"`
	Emotions          Emotions `json:"emotions"`
	Observation       string   `json:"observation"`
	Recommendations   []string `json:"recommendations"`
	EntryNumber       int      `json:"entryNumber"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func ToCreateEntryResponse(e *Entry, number int) CreateEntryResponse {
	return CreateEntryResponse{
		ID:              e.ID,
		EntryNumber:     number,
		DateTime:        e.CreatedAt,
		Observation:     e.Observation,
		ShortSummary:    e.ShortSummary,
		LongSummary:     e.LongSummary,
		Recommendations: e.Recommendations,
		Happiness:       e.Emotions.Happiness,
		Connection:      e.Emotions.Connection,
		Productivity:    e.Emotions.Productivity,
	}
}

func ToListEntriesResponse(items []ListItem) ListEntriesResponse {
	entries := make([]ListEntryResponse, 0, len(items))
	for _, it := range items {
		entries = append(entries, ListEntryResponse{
			ID:            it.ID,
			FormattedDate: it.CreatedAt.UTC().Format(listDateLayout),
			ShortSummary:  it.ShortSummary,
		})
	}
	return ListEntriesResponse{Entries: entries}
}

func ToEntryResponse(e *Entry, number int) EntryResponse {
	return EntryResponse{
		FormattedDateTime: e.CreatedAt.UTC().Format(detailDateLayout),
		Text:              e.RawText,
		LongSummary:       e.LongSummary,
		Emotions:          e.Emotions,
		Observation:       e.Observation,
		Recommendations:   e.Recommendations,
		EntryNumber:       number,
	}
}
