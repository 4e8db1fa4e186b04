// Package file provides file-based persistence for applications and their change events.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence"
)

const (
	applicationsDir = "applications"
	eventsDir       = "events"
)

// Persistence implements the persistence.Persistence interface using the file system.
//
// Layout:
//
//	<root>/applications/<id>.json
//	<root>/events/<application-id>/<event-id>.json
type Persistence struct {
	root            string
	mu              sync.Mutex // serialises transactions
	applicationRepo *ApplicationRepository
	changeEventRepo *ChangeEventRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:            cleanRoot,
		applicationRepo: NewApplicationRepository(cleanRoot),
		changeEventRepo: NewChangeEventRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) ApplicationRepository() persistence.ApplicationRepository {
	return fp.applicationRepo
}

func (fp *Persistence) ChangeEventRepository() persistence.ChangeEventRepository {
	return fp.changeEventRepo
}

// Transaction buffers the writes made by fn and flushes them when fn succeeds.
// If an event cannot be written, application files touched by the transaction
// are restored to their previous content.
func (fp *Persistence) Transaction(ctx context.Context, fn persistence.TransactionFunc) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	uow := &unitOfWork{}

	err := fn(ctx, uow)
	if err != nil {
		return err
	}

	return fp.commit(uow)
}

func (fp *Persistence) commit(uow *unitOfWork) error {
	restore := make([]func() error, 0, len(uow.applications))

	rollback := func(cause error) error {
		for i := len(restore) - 1; i >= 0; i-- {
			if err := restore[i](); err != nil {
				return errors.Join(cause, fmt.Errorf("failed to roll back application write: %w", err))
			}
		}

		return cause
	}

	for _, app := range uow.applications {
		undo, err := fp.applicationRepo.save(app)
		if err != nil {
			return rollback(err)
		}

		restore = append(restore, undo)
	}

	for _, event := range uow.events {
		err := fp.changeEventRepo.save(event)
		if err != nil {
			return rollback(err)
		}
	}

	return nil
}

type unitOfWork struct {
	applications []*models.Application
	events       []*models.ChangeEvent
}

func (u *unitOfWork) SaveApplication(_ context.Context, app *models.Application) error {
	if app == nil || app.ID == "" {
		return persistence.ErrInvalidApplication
	}

	clone := *app
	u.applications = append(u.applications, &clone)

	return nil
}

func (u *unitOfWork) SaveChangeEvent(_ context.Context, event *models.ChangeEvent) error {
	if event == nil || event.ID == "" {
		return errors.New("change event ID is required")
	}

	clone := *event
	u.events = append(u.events, &clone)

	return nil
}

// writeJSON writes v next to path and renames it into place so readers never see a partial file.
func writeJSON(path string, v any) error {
	err := os.MkdirAll(filepath.Dir(path), 0750)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	err = os.Rename(tmp, path)
	if err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}

	return nil
}
