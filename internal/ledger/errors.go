package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrLimitReached     = errors.New("bill limit reached")
	ErrMissingCustomer  = errors.New("customer name is required")
	ErrNoValidItems     = errors.New("at least one item with valid details is required")
	ErrProtectedAccount = errors.New("the default administrator cannot be deleted")
	ErrEmptyInventory   = errors.New("no inventory items found")
	ErrInactiveUser     = errors.New("user is inactive")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
)

// InsufficientStockError reports a catalog line asking for more units than
// the item has on hand.
type InsufficientStockError struct {
	ItemID    int64
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ItemName, e.Available, e.Requested)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(kind string, id any) error {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
