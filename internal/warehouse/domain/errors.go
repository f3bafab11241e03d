package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// StockErrorKind classifies ledger invariant violations.
type StockErrorKind string

const (
	KindInsufficientStock          StockErrorKind = "INSUFFICIENT_STOCK"
	KindInsufficientAvailableStock StockErrorKind = "INSUFFICIENT_AVAILABLE_STOCK"
	KindInsufficientReservedStock  StockErrorKind = "INSUFFICIENT_RESERVED_STOCK"
	KindOverRelease                StockErrorKind = "OVER_RELEASE"
)

// StockError reports a rejected ledger mutation. It always carries the
// shortfall so the caller can correct the request instead of retrying blind.
type StockError struct {
	Kind      StockErrorKind
	ItemName  string
	Requested float64
	Available float64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: item %q requested %.2f, available %.2f",
		e.Kind, e.ItemName, e.Requested, e.Available)
}

// Shortfall is the quantity missing to satisfy the request.
func (e *StockError) Shortfall() float64 {
	return e.Requested - e.Available
}

// NewStockError creates a stock error for an item.
func NewStockError(kind StockErrorKind, item *Item, requested, available float64) *StockError {
	name := ""
	if item != nil {
		name = item.Name
	}
	return &StockError{Kind: kind, ItemName: name, Requested: requested, Available: available}
}

// InvalidStateError reports an operation attempted from a state that
// forbids it, e.g. approving a production request that is not pending.
type InvalidStateError struct {
	Entity  string
	Current string
	Op      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s cannot %s while in state %q", e.Entity, e.Op, e.Current)
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsStockError reports whether err is a ledger invariant violation.
func IsStockError(err error) bool {
	var se *StockError
	return errors.As(err, &se)
}
