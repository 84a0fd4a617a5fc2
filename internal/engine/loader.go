package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Leadflow/internal/domain"
)

// LoadFile читает workflow из файла (JSON или YAML) и валидирует его.
//
// Ошибки:
//   - ErrNotFound — файла нет
//   - *ValidationError — документ не разбирается или не проходит Validate
func LoadFile(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read workflow %s: %w", path, err)
	}

	return Parse(data)
}

// LoadReader читает workflow из r.
func LoadReader(r io.Reader) (*domain.Workflow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	return Parse(data)
}

// Parse разбирает и валидирует workflow.
//
// Документ, начинающийся с '{', разбирается как JSON, остальные — как YAML.
// Пустой mode заменяется на domain.DefaultMode.
func Parse(data []byte) (*domain.Workflow, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, NewValidationError("", "",
			"workflow document is empty", ErrMalformedDefinition)
	}

	var wf domain.Workflow
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &wf); err != nil {
			return nil, NewValidationError("", "",
				fmt.Sprintf("invalid JSON: %v", err), ErrMalformedDefinition)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &wf); err != nil {
			return nil, NewValidationError("", "",
				fmt.Sprintf("invalid YAML: %v", err), ErrMalformedDefinition)
		}
	}

	if wf.Mode == "" {
		wf.Mode = domain.DefaultMode
	}

	if err := Validate(&wf); err != nil {
		return nil, err
	}

	return &wf, nil
}
