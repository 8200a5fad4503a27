package repository

import (
	"fmt"

	"github.com/DevanshVerma21/SafeNow/internal/models"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// storageError помечает отказ драйвера как ErrStorageUnavailable, сохраняя исходную ошибку
func storageError(op string, err error) error {
	return fmt.Errorf("repository: failed to %s: %w: %w", op, models.ErrStorageUnavailable, err)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
