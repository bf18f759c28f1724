// AngelaMos | 2026
// repository.go

package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/journal/internal/core"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByOwner(ctx context.Context, owner string) ([]ListItem, error)
	GetByIDForOwner(ctx context.Context, id uuid.UUID, owner string) (*Entry, error)
	Ordinal(ctx context.Context, owner string, createdAt time.Time) (int, error)
	CountByOwner(ctx context.Context, owner string) (int, error)
	CountAll(ctx context.Context) (int, error)
	History(ctx context.Context, owner string) ([]HistoryItem, error)
	DeleteByText(ctx context.Context, owner, text string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO entries (
			id, owner_email, created_at, raw_text, short_summary,
			long_summary, emotions, observation, recommendations
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.OwnerEmail,
		e.CreatedAt,
		e.RawText,
		e.ShortSummary,
		e.LongSummary,
		e.Emotions,
		e.Observation,
		e.Recommendations,
	)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}

	return nil
}

func (r *repository) ListByOwner(
	ctx context.Context,
	owner string,
) ([]ListItem, error) {
	query := `
		SELECT id, created_at, short_summary
		FROM entries
		WHERE owner_email = $1
		ORDER BY created_at DESC, id DESC`

	var items []ListItem
	if err := r.db.SelectContext(ctx, &items, query, owner); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return items, nil
}

func (r *repository) GetByIDForOwner(
	ctx context.Context,
	id uuid.UUID,
	owner string,
) (*Entry, error) {
	query := `
		SELECT id, owner_email, created_at, raw_text, short_summary,
		       long_summary, emotions, observation, recommendations
		FROM entries
		WHERE id = $1 AND owner_email = $2`

	var e Entry
	err := r.db.GetContext(ctx, &e, query, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	return &e, nil
}

// Ordinal is the 1-based position of the entry created at createdAt
// among the owner's entries.
func (r *repository) Ordinal(
	ctx context.Context,
	owner string,
	createdAt time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM entries
		WHERE owner_email = $1 AND created_at <= $2`

	var n int
	if err := r.db.GetContext(ctx, &n, query, owner, createdAt); err != nil {
		return 0, fmt.Errorf("entry ordinal: %w", err)
	}

	return n, nil
}

func (r *repository) CountByOwner(ctx context.Context, owner string) (int, error) {
	query := `SELECT COUNT(*) FROM entries WHERE owner_email = $1`

	var n int
	if err := r.db.GetContext(ctx, &n, query, owner); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}

	return n, nil
}

func (r *repository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM entries`); err != nil {
		return 0, fmt.Errorf("count all entries: %w", err)
	}

	return n, nil
}

func (r *repository) History(
	ctx context.Context,
	owner string,
) ([]HistoryItem, error) {
	query := `
		SELECT created_at, long_summary, emotions
		FROM entries
		WHERE owner_email = $1
		ORDER BY created_at ASC, id ASC`

	var items []HistoryItem
	if err := r.db.SelectContext(ctx, &items, query, owner); err != nil {
		return nil, fmt.Errorf("entry history: %w", err)
	}

	return items, nil
}

func (r *repository) DeleteByText(
	ctx context.Context,
	owner, text string,
) (int64, error) {
	query := `DELETE FROM entries WHERE owner_email = $1 AND raw_text = $2`

	result, err := r.db.ExecContext(ctx, query, owner, text)
	if err != nil {
		return 0, fmt.Errorf("delete entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete entry: %w", err)
	}

	if rows == 0 {
		return 0, fmt.Errorf("delete entry: %w", core.ErrNotFound)
	}

	return rows, nil
}
