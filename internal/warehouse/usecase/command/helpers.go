package command

import (
	"context"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/pkg/logger"
)

// recomputeOrderStatus re-derives and persists the parent order's status
// from its items and shipment lines. Runs inside the caller's unit of
// work; every mutating command finishes with it.
func recomputeOrderStatus(uow domain.UnitOfWork, orderID uint) (domain.OrderStatus, error) {
	items, err := uow.Orders().ItemsByOrder(orderID)
	if err != nil {
		return "", err
	}
	lines, err := uow.Shipments().LineStatesByOrder(orderID)
	if err != nil {
		return "", err
	}
	status := domain.AggregateOrderStatus(items, lines)
	if err := uow.Orders().UpdateStatus(orderID, status); err != nil {
		return "", err
	}
	return status, nil
}

// refreshShippedQty rebuilds an order item's shipped quantity from its
// arrived shipment lines and settles the fulfillment status. The item is
// not saved; the caller persists it. A line whose status cannot legally
// reach FULFILLED despite being fully shipped is a state-machine bug
// upstream and fails the transaction rather than sticking half done.
func refreshShippedQty(ctx context.Context, uow domain.UnitOfWork, item *domain.OrderItem) error {
	lines, err := uow.Shipments().LineStatesByOrderItem(item.ID)
	if err != nil {
		return err
	}
	item.ShippedQty = domain.RecomputeShippedQty(item.ID, lines)
	if item.ShippedQty >= item.Qty-domain.Epsilon {
		if !item.FulfillmentStatus.CanTransition(domain.StatusFulfilled) {
			return &domain.InvalidStateError{Entity: "order item", Current: string(item.FulfillmentStatus), Op: "fulfill"}
		}
		item.FulfillmentStatus = domain.StatusFulfilled
	} else if item.FulfillmentStatus == domain.StatusFulfilled {
		// A return pulled the line total back under the ordered quantity.
		item.FulfillmentStatus = domain.StatusDone
	}
	warnIfQuantityAnomalous(ctx, item, domain.OnTruckQty(item.ID, lines))
	return nil
}

// warnIfQuantityAnomalous logs when a line's running totals exceed the
// ordered quantity beyond tolerance. Returns and recycling can cause
// legitimate transient drift, so the totals are flagged, not rejected.
func warnIfQuantityAnomalous(ctx context.Context, item *domain.OrderItem, onTruck float64) {
	if !domain.QuantityAnomalous(item, onTruck) {
		return
	}
	logger.Warn(ctx).
		Uint("order_item_id", item.ID).
		Uint("item_id", item.ItemID).
		Float64("qty", item.Qty).
		Float64("ready_qty", item.ReadyQty).
		Float64("on_truck_qty", onTruck).
		Float64("shipped_qty", item.ShippedQty).
		Msg("Order item running totals exceed ordered quantity")
}

func capAtZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func minFloat(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
