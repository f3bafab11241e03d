package command

import (
	"context"
	"fmt"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// CompleteProductionCommand records manufactured output for an order item
type CompleteProductionCommand struct {
	OrderItemID uint
	Qty         float64
	Actor       string
}

// CompleteProductionHandler books finished goods into the warehouse: the
// produced quantity accumulates on the order item and the physical output
// enters stock through the ledger.
type CompleteProductionHandler struct {
	uowf   domain.UnitOfWorkFactory
	ledger *domain.StockLedger
}

// NewCompleteProductionHandler creates a new complete production handler
func NewCompleteProductionHandler(uowf domain.UnitOfWorkFactory, ledger *domain.StockLedger) *CompleteProductionHandler {
	return &CompleteProductionHandler{uowf: uowf, ledger: ledger}
}

// Handle executes the complete production command
func (h *CompleteProductionHandler) Handle(ctx context.Context, cmd CompleteProductionCommand) (*domain.OrderItem, error) {
	if cmd.Qty <= 0 {
		return nil, &domain.ValidationError{Field: "qty", Reason: "must be positive"}
	}

	var updated *domain.OrderItem
	err := h.uowf.Do(ctx, func(uow domain.UnitOfWork) error {
		item, err := uow.Orders().FindItemByIDForUpdate(cmd.OrderItemID)
		if err != nil {
			return err
		}
		order, err := uow.Orders().FindByID(item.OrderID)
		if err != nil {
			return err
		}

		if err := item.RecordProduction(cmd.Qty); err != nil {
			return err
		}

		tx := &domain.StockTransaction{
			ItemID:      item.ItemID,
			Type:        domain.DirectionIn,
			Source:      domain.SourceProduction,
			Quantity:    cmd.Qty,
			OrderNumber: order.Number,
			Actor:       cmd.Actor,
		}
		if err := uow.Items().CreateTransaction(tx); err != nil {
			return fmt.Errorf("failed to create stock transaction: %w", err)
		}
		reason := fmt.Sprintf("production output for order %s", order.Number)
		if _, err := h.ledger.Adjust(uow, item.ItemID, cmd.Qty, domain.DirectionIn, cmd.Actor, reason, &tx.ID); err != nil {
			return err
		}

		if err := uow.Orders().SaveItem(item); err != nil {
			return err
		}
		if _, err := recomputeOrderStatus(uow, item.OrderID); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
