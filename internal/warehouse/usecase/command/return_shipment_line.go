package command

import (
	"context"
	"fmt"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/kafka"
	"github.com/gudangkita/warehouse-service/pkg/logger"
)

// ReturnShipmentLineCommand represents the command to recall part of a shipment line
type ReturnShipmentLineCommand struct {
	ShipmentLineID uint
	Qty            float64
	Reason         domain.ReturnReason
	Notes          string
	Actor          string
}

// ReturnShipmentLineHandler reverses part of a shipment line before or
// after arrival. REPACK puts goods back on the ready shelf, still
// authorized; RECYCLE writes them off as waste, withdraws the
// authorization and reopens allocation or production. Lines of an
// already-arrived shipment were debited at confirmation, so those first
// get a compensating IN entry before the branch applies.
type ReturnShipmentLineHandler struct {
	uowf   domain.UnitOfWorkFactory
	ledger *domain.StockLedger
	events *kafka.Publisher
}

// NewReturnShipmentLineHandler creates a new return shipment line handler
func NewReturnShipmentLineHandler(uowf domain.UnitOfWorkFactory, ledger *domain.StockLedger, events *kafka.Publisher) *ReturnShipmentLineHandler {
	return &ReturnShipmentLineHandler{uowf: uowf, ledger: ledger, events: events}
}

// Handle executes the return shipment line command
func (h *ReturnShipmentLineHandler) Handle(ctx context.Context, cmd ReturnShipmentLineCommand) (*domain.ShipmentReturn, error) {
	if cmd.Qty <= 0 {
		return nil, &domain.ValidationError{Field: "qty", Reason: "must be positive"}
	}
	if cmd.Reason != domain.ReturnRepack && cmd.Reason != domain.ReturnRecycle {
		return nil, &domain.ValidationError{Field: "reason", Reason: fmt.Sprintf("unknown reason %q", cmd.Reason)}
	}

	var ret *domain.ShipmentReturn
	var orderItemID uint
	err := h.uowf.Do(ctx, func(uow domain.UnitOfWork) error {
		line, err := uow.Shipments().FindLineByIDForUpdate(cmd.ShipmentLineID)
		if err != nil {
			return err
		}
		if cmd.Qty > line.Qty+domain.Epsilon {
			return &domain.ValidationError{
				Field:  "qty",
				Reason: fmt.Sprintf("return of %.2f exceeds remaining line quantity %.2f", cmd.Qty, line.Qty),
			}
		}
		shipment, err := uow.Shipments().FindByID(line.ShipmentID)
		if err != nil {
			return err
		}
		orderItem, err := uow.Orders().FindItemByIDForUpdate(line.OrderItemID)
		if err != nil {
			return err
		}
		orderItemID = orderItem.ID
		order, err := uow.Orders().FindByID(orderItem.OrderID)
		if err != nil {
			return err
		}

		ret = &domain.ShipmentReturn{
			ShipmentLineID: line.ID,
			Qty:            cmd.Qty,
			Reason:         cmd.Reason,
			Notes:          cmd.Notes,
			Actor:          cmd.Actor,
		}
		if err := uow.Shipments().CreateReturn(ret); err != nil {
			return err
		}
		line.Qty -= cmd.Qty
		if line.Qty < 0 {
			line.Qty = 0
		}
		if err := uow.Shipments().SaveLine(line); err != nil {
			return err
		}

		if cmd.Reason != domain.ReturnRepack {
			orderItem.ApprovedQty = capAtZero(orderItem.ApprovedQty - cmd.Qty)
		}

		if shipment.Arrived() {
			// The arrival confirmation already debited physical stock,
			// so returned goods re-enter through a compensating entry.
			reason := fmt.Sprintf("%s return of arrived shipment %d, order %s", domain.ReasonTagReturn, shipment.ID, order.Number)
			if _, err := h.ledger.Adjust(uow, orderItem.ItemID, cmd.Qty, domain.DirectionIn, cmd.Actor, reason, nil); err != nil {
				return err
			}
		}

		switch cmd.Reason {
		case domain.ReturnRepack:
			orderItem.ReadyQty += cmd.Qty
			if shipment.Arrived() && orderItem.FulfillmentMethod == domain.MethodFromStock {
				// Keep the promise accounting intact: goods back on the
				// shelf and still authorized means re-reserved.
				reason := fmt.Sprintf("re-reserved after return, order %s", order.Number)
				if _, err := h.ledger.Reserve(uow, orderItem.ItemID, cmd.Qty, cmd.Actor, reason); err != nil {
					return err
				}
			}

		case domain.ReturnRecycle:
			if err := h.recycle(ctx, uow, shipment, orderItem, order, cmd); err != nil {
				return err
			}
		}

		if err := refreshShippedQty(ctx, uow, orderItem); err != nil {
			return err
		}
		if err := uow.Orders().SaveItem(orderItem); err != nil {
			return err
		}
		if _, err := recomputeOrderStatus(uow, orderItem.OrderID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("shipment_line_id", cmd.ShipmentLineID).
		Float64("qty", cmd.Qty).
		Str("reason", string(cmd.Reason)).
		Msg("Shipment line returned")

	if h.events != nil {
		_ = h.events.PublishShipmentLineReturned(ctx, kafka.ShipmentLineReturnedEvent{
			ShipmentLineID: cmd.ShipmentLineID,
			OrderItemID:    orderItemID,
			Qty:            cmd.Qty,
			Reason:         string(cmd.Reason),
			Actor:          cmd.Actor,
		})
	}
	return ret, nil
}

// recycle scraps the returned quantity: the goods leave the warehouse as
// waste and the order item's allocation reopens.
func (h *ReturnShipmentLineHandler) recycle(ctx context.Context, uow domain.UnitOfWork, shipment *domain.Shipment, orderItem *domain.OrderItem, order *domain.Order, cmd ReturnShipmentLineCommand) error {
	if !shipment.Arrived() && orderItem.FulfillmentMethod == domain.MethodFromStock {
		// The reservation placed at approval still backs this quantity.
		stockItem, err := uow.Items().FindByIDForUpdate(orderItem.ItemID)
		if err != nil {
			return err
		}
		releaseQty := minFloat(cmd.Qty, stockItem.ReservedStock)
		if releaseQty < cmd.Qty-domain.Epsilon {
			logger.Warn(ctx).
				Uint("item_id", stockItem.ID).
				Float64("qty", cmd.Qty).
				Float64("reserved", stockItem.ReservedStock).
				Msg("Release clamped to reserved stock during recycle")
		}
		if releaseQty > domain.Epsilon {
			reason := fmt.Sprintf("recycled from order %s", order.Number)
			if _, err := h.ledger.Release(uow, orderItem.ItemID, releaseQty, cmd.Actor, reason); err != nil {
				return err
			}
		}
	}

	if orderItem.FulfillmentMethod == domain.MethodProduction {
		orderItem.ProducedQty = capAtZero(orderItem.ProducedQty - cmd.Qty)
		// The shortfall reappears in the production-needed queue.
		orderItem.ProductionRequestID = nil
	}

	tx := &domain.StockTransaction{
		ItemID:      orderItem.ItemID,
		Type:        domain.DirectionOut,
		Source:      domain.SourceRecycling,
		Quantity:    cmd.Qty,
		OrderNumber: order.Number,
		Actor:       cmd.Actor,
	}
	if err := uow.Items().CreateTransaction(tx); err != nil {
		return err
	}
	reason := fmt.Sprintf("recycled as waste, order %s", order.Number)
	if _, err := h.ledger.Adjust(uow, orderItem.ItemID, cmd.Qty, domain.DirectionOut, cmd.Actor, reason, &tx.ID); err != nil {
		return err
	}

	if err := uow.Shipments().CreateWaste(&domain.WasteStockEntry{
		ItemID:  orderItem.ItemID,
		OrderID: order.ID,
		Qty:     cmd.Qty,
		Notes:   cmd.Notes,
	}); err != nil {
		return err
	}

	orderItem.RecycledQty += cmd.Qty
	orderItem.ReopenAfterRecycle()
	return nil
}
