package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/kafka"
)

// AdjustStockCommand represents the command to move physical stock in or out
type AdjustStockCommand struct {
	ItemID      uint
	Qty         float64
	Direction   domain.Direction
	Source      domain.TransactionSource
	Reason      string
	UnitPrice   *decimal.Decimal
	OrderNumber string
	Actor       string
}

// AdjustStockHandler handles adjust stock commands
type AdjustStockHandler struct {
	uowf   domain.UnitOfWorkFactory
	ledger *domain.StockLedger
	events *kafka.Publisher
}

// NewAdjustStockHandler creates a new adjust stock handler
func NewAdjustStockHandler(uowf domain.UnitOfWorkFactory, ledger *domain.StockLedger, events *kafka.Publisher) *AdjustStockHandler {
	return &AdjustStockHandler{uowf: uowf, ledger: ledger, events: events}
}

// Handle executes the adjust stock command. The movement record and the
// ledger mutation commit together; IN adjustments carrying a price also
// refresh the item's moving weighted-average unit cost.
func (h *AdjustStockHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*domain.StockMutation, error) {
	if cmd.Qty <= 0 {
		return nil, &domain.ValidationError{Field: "qty", Reason: "must be positive"}
	}
	if cmd.Reason == "" {
		return nil, &domain.ValidationError{Field: "reason", Reason: "is required"}
	}
	if cmd.Source == "" {
		cmd.Source = domain.SourceAdjustment
	}

	var mutation domain.StockMutation
	err := h.uowf.Do(ctx, func(uow domain.UnitOfWork) error {
		tx := &domain.StockTransaction{
			ItemID:      cmd.ItemID,
			Type:        cmd.Direction,
			Source:      cmd.Source,
			Quantity:    cmd.Qty,
			UnitPrice:   cmd.UnitPrice,
			OrderNumber: cmd.OrderNumber,
			Actor:       cmd.Actor,
		}
		if err := uow.Items().CreateTransaction(tx); err != nil {
			return fmt.Errorf("failed to create stock transaction: %w", err)
		}

		m, err := h.ledger.Adjust(uow, cmd.ItemID, cmd.Qty, cmd.Direction, cmd.Actor, cmd.Reason, &tx.ID)
		if err != nil {
			return err
		}
		mutation = m

		if cmd.Direction == domain.DirectionIn && cmd.UnitPrice != nil {
			item, err := uow.Items().FindByID(cmd.ItemID)
			if err != nil {
				return err
			}
			item.UnitCost = domain.WeightedAverageCost(m.Previous, item.UnitCost, cmd.Qty, *cmd.UnitPrice)
			if err := uow.Items().Save(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.events != nil {
		_ = h.events.PublishStockAdjusted(ctx, kafka.StockAdjustedEvent{
			ItemID:    cmd.ItemID,
			Direction: string(cmd.Direction),
			Qty:       cmd.Qty,
			NewStock:  mutation.New,
			Reason:    cmd.Reason,
			Actor:     cmd.Actor,
		})
	}
	return &mutation, nil
}
