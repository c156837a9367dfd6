package repository

import (
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"
)

// wrapStoreErr maps lock and serialization failures to ErrConcurrentUpdate.
func wrapStoreErr(op string, err error) error {
	if database.IsRetryable(err) {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrConcurrentUpdate, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
