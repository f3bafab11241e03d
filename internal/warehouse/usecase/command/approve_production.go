package command

import (
	"context"
	"fmt"
	"time"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/kafka"
	"github.com/gudangkita/warehouse-service/pkg/logger"
)

// ApproveProductionCommand represents the command to approve a production request
type ApproveProductionCommand struct {
	RequestID uint
	Actor     string
}

// ApproveProductionHandler releases raw material to the factory floor.
// Every line is debited outright inside one transaction; the whole
// approval fails if any line is short, naming the first short item.
type ApproveProductionHandler struct {
	uowf   domain.UnitOfWorkFactory
	ledger *domain.StockLedger
	events *kafka.Publisher
}

// NewApproveProductionHandler creates a new approve production handler
func NewApproveProductionHandler(uowf domain.UnitOfWorkFactory, ledger *domain.StockLedger, events *kafka.Publisher) *ApproveProductionHandler {
	return &ApproveProductionHandler{uowf: uowf, ledger: ledger, events: events}
}

// Handle executes the approve production command
func (h *ApproveProductionHandler) Handle(ctx context.Context, cmd ApproveProductionCommand) ([]domain.StockTransaction, error) {
	// Advisory pre-check for a fast failure message. The binding check
	// is inside the ledger at write time.
	if err := h.precheck(cmd.RequestID); err != nil {
		return nil, err
	}

	var transactions []domain.StockTransaction
	err := h.uowf.Do(ctx, func(uow domain.UnitOfWork) error {
		request, err := uow.Production().FindByIDForUpdate(cmd.RequestID)
		if err != nil {
			return err
		}
		if err := request.Approve(cmd.Actor, time.Now()); err != nil {
			return err
		}
		if err := uow.Production().Save(request); err != nil {
			return err
		}

		for _, line := range request.Lines {
			tx := &domain.StockTransaction{
				ItemID:      line.ItemID,
				Type:        domain.DirectionOut,
				Source:      domain.SourceProduction,
				Quantity:    line.Qty,
				OrderNumber: request.OrderNumber,
				Actor:       cmd.Actor,
			}
			if err := uow.Items().CreateTransaction(tx); err != nil {
				return fmt.Errorf("failed to create stock transaction: %w", err)
			}
			reason := fmt.Sprintf("production for order %s", request.OrderNumber)
			if _, err := h.ledger.Adjust(uow, line.ItemID, line.Qty, domain.DirectionOut, cmd.Actor, reason, &tx.ID); err != nil {
				return err
			}
			transactions = append(transactions, *tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("request_id", cmd.RequestID).
		Int("lines", len(transactions)).
		Str("actor", cmd.Actor).
		Msg("Production request approved")

	if h.events != nil {
		for _, tx := range transactions {
			_ = h.events.PublishStockAdjusted(ctx, kafka.StockAdjustedEvent{
				ItemID:    tx.ItemID,
				Direction: string(domain.DirectionOut),
				Qty:       tx.Quantity,
				Reason:    fmt.Sprintf("production for order %s", tx.OrderNumber),
				Actor:     cmd.Actor,
			})
		}
	}
	return transactions, nil
}

func (h *ApproveProductionHandler) precheck(requestID uint) error {
	view := h.uowf.View()
	request, err := view.Production().FindByID(requestID)
	if err != nil {
		return err
	}
	if request.Status != domain.ProductionPending {
		return &domain.InvalidStateError{Entity: "production request", Current: string(request.Status), Op: "approve"}
	}
	for _, line := range request.Lines {
		item, err := view.Items().FindByID(line.ItemID)
		if err != nil {
			return err
		}
		if item.CurrentStock < line.Qty {
			return domain.NewStockError(domain.KindInsufficientStock, item, line.Qty, item.CurrentStock)
		}
	}
	return nil
}
