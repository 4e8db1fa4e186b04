package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// ChangeEventRepository handles change event database operations.
type ChangeEventRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewChangeEventRepository creates a new change event repository.
func NewChangeEventRepository(db *sql.DB, logger *slog.Logger) *ChangeEventRepository {
	return &ChangeEventRepository{db: db, logger: logger}
}

// GetByApplicationID returns the events of an application ordered by timestamp.
func (r *ChangeEventRepository) GetByApplicationID(ctx context.Context, applicationID string) ([]*models.ChangeEvent, error) {
	query := `
		SELECT
			id
		  , application_id
		  , name
		  , content
		  , status
		  , timestamp
		  , cause
		FROM change_events
		WHERE application_id = $1
		ORDER BY timestamp, id
	`

	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query change events: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	events := make([]*models.ChangeEvent, 0)

	for rows.Next() {
		var (
			event models.ChangeEvent
			cause sql.NullString
		)

		err := rows.Scan(
			&event.ID,
			&event.ApplicationID,
			&event.Name,
			&event.Content,
			&event.Status,
			&event.Timestamp,
			&cause,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change event: %w", err)
		}

		if cause.Valid {
			event.Cause = &cause.String
		}

		event.Timestamp = event.Timestamp.UTC()
		events = append(events, &event)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating change events: %w", err)
	}

	return events, nil
}

func saveChangeEvent(ctx context.Context, db execer, event *models.ChangeEvent) error {
	query := `
		INSERT INTO change_events (id, application_id, name, content, status, timestamp, cause)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var cause sql.NullString
	if event.Cause != nil {
		cause = sql.NullString{String: *event.Cause, Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		event.ID,
		event.ApplicationID,
		event.Name,
		event.Content,
		string(event.Status),
		event.Timestamp,
		cause,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = persistence.ErrChangeEventExists
		}

		return persistence.NewChangeEventError("Save", event.ApplicationID, event.ID, err)
	}

	return nil
}
