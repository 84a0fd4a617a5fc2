package store

import "errors"

// ErrNotFound — run не найден.
var ErrNotFound = errors.New("not found")
