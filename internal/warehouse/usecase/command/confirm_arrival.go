package command

import (
	"context"
	"fmt"
	"time"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/kafka"
	"github.com/gudangkita/warehouse-service/pkg/logger"
)

// ConfirmArrivalCommand represents the command to confirm a delivery
type ConfirmArrivalCommand struct {
	ShipmentID   uint
	ReceiverName string
	ArrivedAt    *time.Time
	Notes        string
	PhotoURL     string
	Actor        string
}

// ConfirmArrivalHandler settles a shipment: arrival is the point physical
// stock is actually debited. For stock-sourced lines the reservation is
// consumed; other lines debit stock directly. Shipped quantities are then
// rebuilt from arrived lines so a replayed confirmation cannot drift
// the totals.
type ConfirmArrivalHandler struct {
	uowf   domain.UnitOfWorkFactory
	ledger *domain.StockLedger
	events *kafka.Publisher
}

// NewConfirmArrivalHandler creates a new confirm arrival handler
func NewConfirmArrivalHandler(uowf domain.UnitOfWorkFactory, ledger *domain.StockLedger, events *kafka.Publisher) *ConfirmArrivalHandler {
	return &ConfirmArrivalHandler{uowf: uowf, ledger: ledger, events: events}
}

// Handle executes the confirm arrival command
func (h *ConfirmArrivalHandler) Handle(ctx context.Context, cmd ConfirmArrivalCommand) (*domain.Shipment, error) {
	arrivedAt := time.Now()
	if cmd.ArrivedAt != nil {
		arrivedAt = *cmd.ArrivedAt
	}

	var shipment *domain.Shipment
	err := h.uowf.Do(ctx, func(uow domain.UnitOfWork) error {
		var err error
		shipment, err = uow.Shipments().FindByID(cmd.ShipmentID)
		if err != nil {
			return err
		}
		if err := shipment.ConfirmArrival(arrivedAt, cmd.ReceiverName, cmd.Notes, cmd.PhotoURL); err != nil {
			return err
		}
		if err := uow.Shipments().Save(shipment); err != nil {
			return err
		}

		affectedOrders := make(map[uint]bool)
		for _, line := range shipment.Lines {
			orderItem, err := uow.Orders().FindItemByIDForUpdate(line.OrderItemID)
			if err != nil {
				return err
			}
			order, err := uow.Orders().FindByID(orderItem.OrderID)
			if err != nil {
				return err
			}
			stockItem, err := uow.Items().FindByIDForUpdate(orderItem.ItemID)
			if err != nil {
				return err
			}

			// Ship best effort: drifted data must not abort the whole
			// confirmation, so the debit is clamped to what is truly
			// available and the clamp is logged.
			effectiveQty := minFloat(line.Qty, stockItem.CurrentStock)
			if orderItem.FulfillmentMethod == domain.MethodFromStock {
				effectiveQty = minFloat(effectiveQty, stockItem.ReservedStock)
			} else {
				// Direct debits must not eat into stock promised to
				// other orders.
				effectiveQty = minFloat(effectiveQty, stockItem.AvailableStock())
			}
			if effectiveQty < line.Qty-domain.Epsilon {
				logger.Warn(ctx).
					Uint("shipment_line_id", line.ID).
					Uint("item_id", stockItem.ID).
					Float64("line_qty", line.Qty).
					Float64("effective_qty", effectiveQty).
					Msg("Arrival debit clamped to available stock")
			}

			if effectiveQty > domain.Epsilon {
				tx := &domain.StockTransaction{
					ItemID:      orderItem.ItemID,
					Type:        domain.DirectionOut,
					Source:      domain.SourceOrder,
					Quantity:    effectiveQty,
					OrderNumber: order.Number,
					Actor:       cmd.Actor,
				}
				if err := uow.Items().CreateTransaction(tx); err != nil {
					return fmt.Errorf("failed to create stock transaction: %w", err)
				}
				reason := fmt.Sprintf("shipped to customer, order %s", order.Number)
				if orderItem.FulfillmentMethod == domain.MethodFromStock {
					_, err = h.ledger.FulfillFromReservation(uow, orderItem.ItemID, effectiveQty, cmd.Actor, reason, &tx.ID)
				} else {
					_, err = h.ledger.Adjust(uow, orderItem.ItemID, effectiveQty, domain.DirectionOut, cmd.Actor, reason, &tx.ID)
				}
				if err != nil {
					return err
				}
			}

			if err := refreshShippedQty(ctx, uow, orderItem); err != nil {
				return err
			}
			if err := uow.Orders().SaveItem(orderItem); err != nil {
				return err
			}
			affectedOrders[orderItem.OrderID] = true
		}

		for orderID := range affectedOrders {
			if _, err := recomputeOrderStatus(uow, orderID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("shipment_id", shipment.ID).
		Str("receiver", cmd.ReceiverName).
		Msg("Shipment arrival confirmed")

	if h.events != nil {
		_ = h.events.PublishShipmentArrived(ctx, kafka.ShipmentArrivedEvent{
			ShipmentID:   shipment.ID,
			ReceiverName: cmd.ReceiverName,
			Actor:        cmd.Actor,
		})
	}
	return shipment, nil
}
