package store

import (
	"context"
	"errors"

	"github.com/shaiso/Leadflow/internal/domain"
)

// Saver — хранилище, принимающее результат run.
type Saver interface {
	Save(ctx context.Context, run *domain.Run) error
}

// Multi сохраняет run во все хранилища по очереди.
// Ошибка одного хранилища не мешает остальным.
type Multi []Saver

// Save реализует Saver.
func (m Multi) Save(ctx context.Context, run *domain.Run) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
