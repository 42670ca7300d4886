package repository

import (
	"errors"
	"fmt"

	"github.com/okian/streamwise/internal/domain/model"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound          = fmt.Errorf("repository: %w", model.ErrNotFound)
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
