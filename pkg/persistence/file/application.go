package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence"
)

// ApplicationRepository handles application-related file operations.
type ApplicationRepository struct {
	root string
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(root string) *ApplicationRepository {
	return &ApplicationRepository{root: root}
}

// GetAll returns every stored application ordered by ID.
func (ar *ApplicationRepository) GetAll(ctx context.Context) ([]*models.Application, error) {
	root := os.DirFS(filepath.Join(ar.root, applicationsDir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list application files: %w", err)
	}

	applications := make([]*models.Application, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-len(".json")]

		app, err := ar.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if app != nil {
			applications = append(applications, app)
		}
	}

	sort.Slice(applications, func(i, j int) bool {
		return applications[i].ID < applications[j].ID
	})

	return applications, nil
}

// GetByID retrieves an application by its ID from the file system.
func (ar *ApplicationRepository) GetByID(_ context.Context, id string) (*models.Application, error) {
	body, err := os.ReadFile(ar.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, persistence.NewApplicationError("GetByID", id, err)
	}

	var app models.Application

	err = json.Unmarshal(body, &app)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal application %s: %w", id, err)
	}

	return &app, nil
}

// save writes app and returns a function restoring the previous state of its file.
func (ar *ApplicationRepository) save(app *models.Application) (func() error, error) {
	filePath := ar.path(app.ID)

	previous, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, persistence.NewApplicationError("Save", app.ID, err)
	}

	existed := err == nil

	err = writeJSON(filePath, app)
	if err != nil {
		return nil, persistence.NewApplicationError("Save", app.ID, err)
	}

	return func() error {
		if !existed {
			return os.Remove(filePath)
		}

		return os.WriteFile(filePath, previous, 0600)
	}, nil
}

func (ar *ApplicationRepository) path(id string) string {
	return filepath.Join(ar.root, applicationsDir, filepath.Base(id)+".json")
}
