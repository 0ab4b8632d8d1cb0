package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema describes the accepted config file keys.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "backupSuffix": {"type": "string", "minLength": 1, "pattern": "^[^/\\\\]+$"},
    "backup": {"type": "boolean"},
    "replaceAll": {"type": "boolean"},
    "logLevel": {"type": "string", "enum": ["DEBUG", "INFO", "WARN", "WARNING", "ERROR", "debug", "info", "warn", "warning", "error"]},
    "color": {"type": "boolean"}
  }
}`

var (
	schemaLoader     gojsonschema.JSONLoader
	schemaLoaderErr  error
	schemaLoaderOnce sync.Once
)

// SchemaError lists every violation found in a config document.
type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return "config failed schema validation"
	}
	return "config failed schema validation: " + strings.Join(e.Issues, "; ")
}

func loadSchema() (gojsonschema.JSONLoader, error) {
	schemaLoaderOnce.Do(func() {
		loader := gojsonschema.NewStringLoader(configSchema)
		if _, err := gojsonschema.NewSchema(loader); err != nil {
			schemaLoaderErr = err
			return
		}
		schemaLoader = loader
	})
	if schemaLoaderErr != nil {
		return nil, schemaLoaderErr
	}
	return schemaLoader, nil
}

func validateDocument(doc any) error {
	loader, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &SchemaError{Issues: issues}
}
