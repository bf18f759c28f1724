// AngelaMos | 2026
// entity.go

package entry

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const RecommendationCount = 3

type Entry struct {
	ID              uuid.UUID       `db:"id"`
	OwnerEmail      string          `db:"owner_email"`
	CreatedAt       time.Time       `db:"created_at"`
	RawText         string          `db:"raw_text"`
	ShortSummary    string          `db:"short_summary"`
	LongSummary     string          `db:"long_summary"`
	Emotions        Emotions        `db:"emotions"`
	Observation     string          `db:"observation"`
	Recommendations Recommendations `db:"recommendations"`
}

type ListItem struct {
	ID           uuid.UUID `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	ShortSummary string    `db:"short_summary"`
}

// HistoryItem is the slice of a past entry that feeds prompts and charts.
type HistoryItem struct {
	CreatedAt   time.Time `db:"created_at"`
	LongSummary string    `db:"long_summary"`
	Emotions    Emotions  `db:"emotions"`
}

// Emotions are intensities in [0,1], stored as a JSONB object.
type Emotions struct {
	Happiness    float64 `json:"happiness"`
	Connection   float64 `json:"connection"`
	Productivity float64 `json:"productivity"`
}

func (e Emotions) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *Emotions) Scan(src any) error {
	return scanJSON(src, e)
}

type Recommendations []string

func (r Recommendations) Value() (driver.Value, error) {
	if r == nil {
		r = Recommendations{}
	}
	return json.Marshal([]string(r))
}

func (r *Recommendations) Scan(src any) error {
	return scanJSON(src, (*[]string)(r))
}

func scanJSON(src, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		return errors.New("scan json: null value")
	default:
		return fmt.Errorf("scan json: unsupported type %T", src)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("scan json: %w", err)
	}
	return nil
}
