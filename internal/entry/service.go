// AngelaMos | 2026
// service.go

package entry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/journal/internal/core"
)

type Service struct {
	repo     Repository
	enricher *Enricher
	metrics  *core.Metrics
	now      func() time.Time
}

func NewService(
	repo Repository,
	enricher *Enricher,
	metrics *core.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		enricher: enricher,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Create runs the enrichment pipeline and stores the entry only when every
// derived field is available. The returned int is the entry's 1-based number.
func (s *Service) Create(
	ctx context.Context,
	owner, text string,
) (*Entry, int, error) {
	if strings.TrimSpace(text) == "" {
		return nil, 0, fmt.Errorf("create entry: %w", core.ErrInvalidInput)
	}

	ctx, span := core.StartSpan(ctx, "entry.create",
		attribute.Int("entry.text_chars", len(text)),
	)
	defer span.End()

	history, err := s.repo.History(ctx, owner)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, 0, err
	}

	at := s.now().UTC().Truncate(time.Microsecond)

	enriched, err := s.enricher.Enrich(ctx, text, history, at)
	if err != nil {
		return nil, 0, fmt.Errorf("enrich entry: %w", err)
	}

	e := &Entry{
		ID:              uuid.New(),
		OwnerEmail:      owner,
		CreatedAt:       at,
		RawText:         text,
		ShortSummary:    enriched.ShortSummary,
		LongSummary:     enriched.LongSummary,
		Emotions:        enriched.Emotions,
		Observation:     enriched.Observation,
		Recommendations: enriched.Recommendations,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		core.SetSpanError(ctx, err)
		return nil, 0, err
	}

	s.metrics.EntryCreated()
	span.SetAttributes(attribute.String("entry.id", e.ID.String()))

	return e, len(history) + 1, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]ListItem, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Get answers not-found for malformed ids as well as foreign ones.
func (s *Service) Get(
	ctx context.Context,
	owner, rawID string,
) (*Entry, int, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, 0, fmt.Errorf("get entry: %w", core.ErrNotFound)
	}

	e, err := s.repo.GetByIDForOwner(ctx, id, owner)
	if err != nil {
		return nil, 0, err
	}

	number, err := s.repo.Ordinal(ctx, owner, e.CreatedAt)
	if err != nil {
		return nil, 0, err
	}

	return e, number, nil
}

func (s *Service) Delete(ctx context.Context, owner, text string) error {
	_, err := s.repo.DeleteByText(ctx, owner, text)
	return err
}

// History returns the owner's entries oldest first.
func (s *Service) History(ctx context.Context, owner string) ([]HistoryItem, error) {
	return s.repo.History(ctx, owner)
}

func (s *Service) Count(ctx context.Context, owner string) (int, error) {
	return s.repo.CountByOwner(ctx, owner)
}

// Total counts entries across every owner.
func (s *Service) Total(ctx context.Context) (int, error) {
	return s.repo.CountAll(ctx)
}
