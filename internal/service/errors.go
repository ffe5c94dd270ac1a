package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStateConflict    = errors.New("state conflict")
)

// Named precondition failures. All wrap ErrStateConflict so handlers
// can map them with a single errors.Is check.
var (
	ErrProjectNotPending   = fmt.Errorf("%w: project is not pending", ErrStateConflict)
	ErrProjectNotActive    = fmt.Errorf("%w: project is not active", ErrStateConflict)
	ErrActiveProjectExists = fmt.Errorf("%w: branch already has an active project", ErrStateConflict)
	ErrItemsNotCompleted   = fmt.Errorf("%w: not all work orders are completed", ErrStateConflict)
	ErrItemsNotPaid        = fmt.Errorf("%w: not all work orders are paid", ErrStateConflict)
	ErrNoPaymentProof      = fmt.Errorf("%w: payment proof has not been submitted", ErrStateConflict)
	ErrBackwardTransition  = fmt.Errorf("%w: work order stage cannot move backward", ErrStateConflict)
	ErrPriceLocked         = fmt.Errorf("%w: price is immutable once paid", ErrStateConflict)
)

// notFoundAs maps a missing row onto the service error taxonomy.
func notFoundAs(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	}
	return err
}
