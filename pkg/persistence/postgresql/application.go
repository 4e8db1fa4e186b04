package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// ApplicationRepository handles application-related database operations.
type ApplicationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *sql.DB, logger *slog.Logger) *ApplicationRepository {
	return &ApplicationRepository{db: db, logger: logger}
}

// GetAll returns all applications from the database.
func (r *ApplicationRepository) GetAll(ctx context.Context) ([]*models.Application, error) {
	query := `
		SELECT
			id
		  , name
		  , content
		  , status
		FROM applications
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	applications := make([]*models.Application, 0)

	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}

		applications = append(applications, app)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}

	return applications, nil
}

// GetByID returns an application by its ID, or nil when it does not exist.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `
		SELECT
			id
		  , name
		  , content
		  , status
		FROM applications
		WHERE id = $1
	`

	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, persistence.NewApplicationError("GetByID", id, err)
	}

	return app, nil
}

func scanApplication(row scanner) (*models.Application, error) {
	var app models.Application

	err := row.Scan(&app.ID, &app.Name, &app.Content, &app.Status)
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// saveApplication upserts app by its ID.
func saveApplication(ctx context.Context, db execer, app *models.Application) error {
	if app == nil || app.ID == "" {
		return persistence.ErrInvalidApplication
	}

	query := `
		INSERT INTO applications (id, name, content, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.ExecContext(ctx, query, app.ID, app.Name, app.Content, string(app.Status))
	if err != nil {
		return persistence.NewApplicationError("Save", app.ID, err)
	}

	return nil
}
