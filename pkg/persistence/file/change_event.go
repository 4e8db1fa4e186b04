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

// ChangeEventRepository handles change event file operations.
type ChangeEventRepository struct {
	root string
}

// NewChangeEventRepository creates a new change event repository.
func NewChangeEventRepository(root string) *ChangeEventRepository {
	return &ChangeEventRepository{root: root}
}

// GetByApplicationID returns the events of an application ordered by timestamp.
func (cr *ChangeEventRepository) GetByApplicationID(_ context.Context, applicationID string) ([]*models.ChangeEvent, error) {
	dir := filepath.Join(cr.root, eventsDir, filepath.Base(applicationID))

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list change event files: %w", err)
	}

	events := make([]*models.ChangeEvent, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		body, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read change event %s: %w", file, err)
		}

		var event models.ChangeEvent

		err = json.Unmarshal(body, &event)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal change event %s: %w", file, err)
		}

		events = append(events, &event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].ID < events[j].ID
		}

		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, nil
}

func (cr *ChangeEventRepository) save(event *models.ChangeEvent) error {
	filePath := filepath.Join(cr.root, eventsDir, filepath.Base(event.ApplicationID), filepath.Base(event.ID)+".json")

	_, err := os.Stat(filePath)
	if err == nil {
		return persistence.NewChangeEventError("Save", event.ApplicationID, event.ID, persistence.ErrChangeEventExists)
	}

	err = writeJSON(filePath, event)
	if err != nil {
		return persistence.NewChangeEventError("Save", event.ApplicationID, event.ID, err)
	}

	return nil
}
