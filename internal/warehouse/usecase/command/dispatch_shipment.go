package command

import (
	"context"
	"fmt"
	"time"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/kafka"
	"github.com/gudangkita/warehouse-service/pkg/logger"
)

// DispatchLine is one requested order-item quantity for a truck load.
type DispatchLine struct {
	OrderItemID uint
	Qty         float64
}

// DispatchShipmentCommand represents the command to send a truck out
type DispatchShipmentCommand struct {
	OrderIDs         []uint
	DriverName       string
	VehiclePlate     string
	EstimatedArrival *time.Time
	Notes            string
	Lines            []DispatchLine
	Actor            string
}

// DispatchShipmentHandler creates a shipment from ready quantity. The
// requested quantity per line is capped to what is both authorized and
// physically ready; the ready shelf is decremented the moment the truck
// leaves, before delivery is confirmed, so the goods cannot be
// reallocated while in transit.
type DispatchShipmentHandler struct {
	uowf   domain.UnitOfWorkFactory
	events *kafka.Publisher
}

// NewDispatchShipmentHandler creates a new dispatch shipment handler
func NewDispatchShipmentHandler(uowf domain.UnitOfWorkFactory, events *kafka.Publisher) *DispatchShipmentHandler {
	return &DispatchShipmentHandler{uowf: uowf, events: events}
}

// Handle executes the dispatch shipment command
func (h *DispatchShipmentHandler) Handle(ctx context.Context, cmd DispatchShipmentCommand) (*domain.Shipment, error) {
	if cmd.DriverName == "" {
		return nil, &domain.ValidationError{Field: "driver_name", Reason: "is required"}
	}
	if len(cmd.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "at least one line is required"}
	}
	if len(cmd.OrderIDs) == 0 {
		return nil, &domain.ValidationError{Field: "order_ids", Reason: "at least one order is required"}
	}

	var shipment *domain.Shipment
	err := h.uowf.Do(ctx, func(uow domain.UnitOfWork) error {
		orders, err := uow.Orders().FindByIDs(cmd.OrderIDs)
		if err != nil {
			return err
		}
		if len(orders) != len(cmd.OrderIDs) {
			return domain.ErrNotFound
		}
		allowed := make(map[uint]bool, len(cmd.OrderIDs))
		for _, o := range orders {
			if !o.VisibleToShipping() {
				return &domain.InvalidStateError{Entity: "order " + o.Number, Current: "UNAPPROVED", Op: "dispatch"}
			}
			allowed[o.ID] = true
		}

		shipment = &domain.Shipment{
			DriverName:       cmd.DriverName,
			VehiclePlate:     cmd.VehiclePlate,
			DepartedAt:       time.Now(),
			EstimatedArrival: cmd.EstimatedArrival,
			Notes:            cmd.Notes,
		}
		if err := uow.Shipments().Create(shipment); err != nil {
			return fmt.Errorf("failed to create shipment: %w", err)
		}

		for _, req := range cmd.Lines {
			if req.Qty <= 0 {
				return &domain.ValidationError{Field: "qty", Reason: "must be positive"}
			}
			item, err := uow.Orders().FindItemByIDForUpdate(req.OrderItemID)
			if err != nil {
				return err
			}
			if !allowed[item.OrderID] {
				return &domain.ValidationError{Field: "order_item_id", Reason: fmt.Sprintf("order item %d does not belong to the dispatched orders", req.OrderItemID)}
			}

			states, err := uow.Shipments().LineStatesByOrderItem(item.ID)
			if err != nil {
				return err
			}
			onTruck := domain.OnTruckQty(item.ID, states)
			authorizedRemaining := capAtZero(item.ApprovedQty - item.ShippedQty - onTruck)
			qty := minFloat(req.Qty, authorizedRemaining, item.ReadyQty)
			if qty <= domain.Epsilon {
				return &domain.ValidationError{
					Field:  "qty",
					Reason: fmt.Sprintf("order item %d has no dispatchable quantity (authorized %.2f, ready %.2f)", item.ID, authorizedRemaining, item.ReadyQty),
				}
			}

			line := &domain.ShipmentLine{
				ShipmentID:  shipment.ID,
				OrderItemID: item.ID,
				Qty:         qty,
			}
			if err := uow.Shipments().SaveLine(line); err != nil {
				return err
			}
			shipment.Lines = append(shipment.Lines, *line)

			item.ReadyQty -= qty
			warnIfQuantityAnomalous(ctx, item, onTruck+qty)
			if err := uow.Orders().SaveItem(item); err != nil {
				return err
			}
		}

		for _, orderID := range cmd.OrderIDs {
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
		Str("driver", cmd.DriverName).
		Int("lines", len(shipment.Lines)).
		Msg("Shipment dispatched")

	if h.events != nil {
		_ = h.events.PublishShipmentDispatched(ctx, kafka.ShipmentDispatchedEvent{
			ShipmentID: shipment.ID,
			OrderIDs:   cmd.OrderIDs,
			DriverName: cmd.DriverName,
			LineCount:  len(shipment.Lines),
			Actor:      cmd.Actor,
		})
	}
	return shipment, nil
}
