package storage

import "github.com/pkg/errors"

var (
	ErrEntityNotFound  = errors.New("entity not found")
	ErrEntityNotUnique = errors.New("entity not unique")
)
