package domain

// Epsilon absorbs rounding in fractional-unit quantities (kilograms).
const Epsilon = 0.01

// LineState is the view of one shipment line the aggregator needs: its
// quantity and whether the parent shipment has arrived.
type LineState struct {
	OrderItemID uint
	Qty         float64
	Arrived     bool
}

// AggregateOrderStatus derives the order status from its items and their
// shipment lines. The computation is a pure function of its inputs:
// running it twice with unchanged data yields the same status, which is
// what keeps the order header resilient to partial failures and replays.
func AggregateOrderStatus(items []OrderItem, lines []LineState) OrderStatus {
	var totalQty, totalShipped, totalOnTruck float64
	for _, it := range items {
		totalQty += it.Qty
		totalShipped += it.ShippedQty
	}
	for _, ln := range lines {
		if !ln.Arrived {
			totalOnTruck += ln.Qty
		}
	}

	switch {
	case totalOnTruck > 0:
		return OrderShipping
	case totalShipped >= totalQty-Epsilon:
		return OrderDone
	case totalShipped > 0:
		return OrderPartial
	}

	productionPresent := false
	productionDone := true
	for _, it := range items {
		if it.FulfillmentMethod != MethodProduction {
			continue
		}
		productionPresent = true
		if it.ProducedQty < it.Qty-Epsilon {
			productionDone = false
		}
	}
	if productionPresent && !productionDone {
		return OrderInProgress
	}
	return OrderReadyToShip
}

// RecomputeShippedQty sums the arrived shipment lines of one order item.
// Shipped quantity is always rebuilt from source records, never
// incremented, so re-running a confirmation cannot drift the total.
func RecomputeShippedQty(orderItemID uint, lines []LineState) float64 {
	var total float64
	for _, ln := range lines {
		if ln.Arrived && ln.OrderItemID == orderItemID {
			total += ln.Qty
		}
	}
	return total
}

// OnTruckQty sums the in-transit quantity of one order item.
func OnTruckQty(orderItemID uint, lines []LineState) float64 {
	var total float64
	for _, ln := range lines {
		if !ln.Arrived && ln.OrderItemID == orderItemID {
			total += ln.Qty
		}
	}
	return total
}

// QuantityAnomalous reports whether an order item's running totals exceed
// the ordered quantity beyond tolerance. Returns and recycling can cause
// legitimate transient drift, so callers log rather than reject.
func QuantityAnomalous(item *OrderItem, onTruck float64) bool {
	return item.ReadyQty+onTruck+item.ShippedQty > item.Qty+Epsilon
}
