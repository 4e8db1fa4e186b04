package events

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed application_changed.schema.json
var applicationChangedSchema []byte

var ErrSchemaValidation = errors.New("schema validation failed")

var applicationChangedLoader = gojsonschema.NewBytesLoader(applicationChangedSchema)

// ValidateApplicationChanged checks a raw notification payload against the ApplicationChanged schema.
func ValidateApplicationChanged(payload []byte) error {
	result, err := gojsonschema.Validate(applicationChangedLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("failed to validate payload: %w", err)
	}

	if !result.Valid() {
		var descriptions []string
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrSchemaValidation, strings.Join(descriptions, "; "))
	}

	return nil
}
