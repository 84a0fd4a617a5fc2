package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shaiso/Leadflow/internal/domain"
)

// FileStore сохраняет итоговый документ run в JSON-файл:
//
//	{"search": {"output": {...}}, "score": {"output": {"error": "..."}}}
//
// Каждый Save перезаписывает файл целиком.
type FileStore struct {
	path string
}

// NewFileStore создаёт FileStore для файла path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path возвращает путь к файлу.
func (s *FileStore) Path() string {
	return s.path
}

// Save записывает документ run. Запись атомарна: временный файл + rename.
func (s *FileStore) Save(ctx context.Context, run *domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(run.Outputs(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".leadflow-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write outputs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename outputs: %w", err)
	}
	return nil
}

// Load читает ранее сохранённый документ.
func (s *FileStore) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read outputs: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal outputs: %w", err)
	}
	return doc, nil
}
