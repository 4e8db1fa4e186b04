// Package postgresql provides PostgreSQL persistence for applications and their change events.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence"
	"github.com/dukex/appflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db              *sql.DB
	logger          *slog.Logger
	applicationRepo *ApplicationRepository
	changeEventRepo *ChangeEventRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return newPersistence(database, logger), nil
}

func newPersistence(db *sql.DB, logger *slog.Logger) *Persistence {
	return &Persistence{
		db:              db,
		logger:          logger,
		applicationRepo: NewApplicationRepository(db, logger),
		changeEventRepo: NewChangeEventRepository(db, logger),
	}
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) ApplicationRepository() persistence.ApplicationRepository {
	return p.applicationRepo
}

func (p *Persistence) ChangeEventRepository() persistence.ChangeEventRepository {
	return p.changeEventRepo
}

// Transaction runs fn inside a database transaction, committing only when fn succeeds.
func (p *Persistence) Transaction(ctx context.Context, fn persistence.TransactionFunc) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				p.logger.ErrorContext(ctx, "failed to roll back transaction", "error", rollbackErr)
			}
		}
	}()

	err = fn(ctx, &unitOfWork{tx: tx})
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) SaveApplication(ctx context.Context, app *models.Application) error {
	return saveApplication(ctx, u.tx, app)
}

func (u *unitOfWork) SaveChangeEvent(ctx context.Context, event *models.ChangeEvent) error {
	return saveChangeEvent(ctx, u.tx, event)
}
