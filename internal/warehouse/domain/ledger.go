package domain

import "fmt"

// StockLedger owns the four mutating primitives over an item's physical
// and reserved stock. Every primitive runs against a caller-supplied unit
// of work, locks the item row, applies the mutation, and appends exactly
// one audit entry. Separating reserve (promise) from fulfill (physical
// removal) lets stock be promised to an order at planning time while the
// floor keeps accounting for what is physically present.
type StockLedger struct{}

// NewStockLedger creates a stock ledger.
func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

// StockMutation reports a physical stock change.
type StockMutation struct {
	Previous float64 `json:"previous"`
	New      float64 `json:"new"`
}

// ReservedMutation reports a reserved stock change.
type ReservedMutation struct {
	PreviousReserved float64 `json:"previous_reserved"`
	NewReserved      float64 `json:"new_reserved"`
}

// Adjust moves physical stock in or out. OUT fails when it would drive
// CurrentStock negative or leave less physical stock than is promised to
// orders; reserved quantity only leaves through FulfillFromReservation.
func (l *StockLedger) Adjust(uow UnitOfWork, itemID uint, qty float64, dir Direction, actor, reason string, transactionID *uint) (StockMutation, error) {
	if qty <= 0 {
		return StockMutation{}, &ValidationError{Field: "qty", Reason: "must be positive"}
	}
	item, err := uow.Items().FindByIDForUpdate(itemID)
	if err != nil {
		return StockMutation{}, err
	}

	previous := item.CurrentStock
	switch dir {
	case DirectionIn:
		item.CurrentStock += qty
	case DirectionOut:
		if item.CurrentStock-qty < 0 {
			return StockMutation{}, NewStockError(KindInsufficientStock, item, qty, item.CurrentStock)
		}
		if item.CurrentStock-qty < item.ReservedStock-Epsilon {
			return StockMutation{}, NewStockError(KindInsufficientAvailableStock, item, qty, item.AvailableStock())
		}
		item.CurrentStock -= qty
	default:
		return StockMutation{}, &ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q", dir)}
	}

	if err := uow.Items().Save(item); err != nil {
		return StockMutation{}, err
	}
	entry := &StockHistoryEntry{
		ItemID:        item.ID,
		PreviousStock: previous,
		NewStock:      item.CurrentStock,
		Delta:         item.CurrentStock - previous,
		Reason:        reason,
		TransactionID: transactionID,
		Actor:         actor,
	}
	if err := uow.Items().AppendHistory(entry); err != nil {
		return StockMutation{}, err
	}
	return StockMutation{Previous: previous, New: item.CurrentStock}, nil
}

// Reserve promises qty of available stock to an order. Only ReservedStock
// moves; the audit entry carries a zero stock delta.
func (l *StockLedger) Reserve(uow UnitOfWork, itemID uint, qty float64, actor, reason string) (ReservedMutation, error) {
	if qty <= 0 {
		return ReservedMutation{}, &ValidationError{Field: "qty", Reason: "must be positive"}
	}
	item, err := uow.Items().FindByIDForUpdate(itemID)
	if err != nil {
		return ReservedMutation{}, err
	}
	if item.AvailableStock() < qty {
		return ReservedMutation{}, NewStockError(KindInsufficientAvailableStock, item, qty, item.AvailableStock())
	}

	previous := item.ReservedStock
	item.ReservedStock += qty
	if err := uow.Items().Save(item); err != nil {
		return ReservedMutation{}, err
	}
	if err := l.appendZeroDeltaEntry(uow, item, actor, ReasonTagReserve, reason); err != nil {
		return ReservedMutation{}, err
	}
	return ReservedMutation{PreviousReserved: previous, NewReserved: item.ReservedStock}, nil
}

// Release gives a reservation back. Mirrors Reserve.
func (l *StockLedger) Release(uow UnitOfWork, itemID uint, qty float64, actor, reason string) (ReservedMutation, error) {
	if qty <= 0 {
		return ReservedMutation{}, &ValidationError{Field: "qty", Reason: "must be positive"}
	}
	item, err := uow.Items().FindByIDForUpdate(itemID)
	if err != nil {
		return ReservedMutation{}, err
	}
	if qty > item.ReservedStock {
		return ReservedMutation{}, NewStockError(KindOverRelease, item, qty, item.ReservedStock)
	}

	previous := item.ReservedStock
	item.ReservedStock -= qty
	if err := uow.Items().Save(item); err != nil {
		return ReservedMutation{}, err
	}
	if err := l.appendZeroDeltaEntry(uow, item, actor, ReasonTagRelease, reason); err != nil {
		return ReservedMutation{}, err
	}
	return ReservedMutation{PreviousReserved: previous, NewReserved: item.ReservedStock}, nil
}

// FulfillFromReservation is the only primitive that decrements reserved
// and physical stock together: the promised goods physically leave.
func (l *StockLedger) FulfillFromReservation(uow UnitOfWork, itemID uint, qty float64, actor, reason string, transactionID *uint) (StockMutation, error) {
	if qty <= 0 {
		return StockMutation{}, &ValidationError{Field: "qty", Reason: "must be positive"}
	}
	item, err := uow.Items().FindByIDForUpdate(itemID)
	if err != nil {
		return StockMutation{}, err
	}
	if qty > item.ReservedStock {
		return StockMutation{}, NewStockError(KindInsufficientReservedStock, item, qty, item.ReservedStock)
	}
	if item.CurrentStock-qty < 0 {
		return StockMutation{}, NewStockError(KindInsufficientStock, item, qty, item.CurrentStock)
	}

	previous := item.CurrentStock
	item.ReservedStock -= qty
	item.CurrentStock -= qty
	if err := uow.Items().Save(item); err != nil {
		return StockMutation{}, err
	}
	entry := &StockHistoryEntry{
		ItemID:        item.ID,
		PreviousStock: previous,
		NewStock:      item.CurrentStock,
		Delta:         item.CurrentStock - previous,
		Reason:        ReasonTagFulfill + " " + reason,
		TransactionID: transactionID,
		Actor:         actor,
	}
	if err := uow.Items().AppendHistory(entry); err != nil {
		return StockMutation{}, err
	}
	return StockMutation{Previous: previous, New: item.CurrentStock}, nil
}

func (l *StockLedger) appendZeroDeltaEntry(uow UnitOfWork, item *Item, actor, tag, reason string) error {
	return uow.Items().AppendHistory(&StockHistoryEntry{
		ItemID:        item.ID,
		PreviousStock: item.CurrentStock,
		NewStock:      item.CurrentStock,
		Delta:         0,
		Reason:        tag + " " + reason,
		Actor:         actor,
	})
}
