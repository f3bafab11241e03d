package domain

import (
	"time"

	"gorm.io/gorm"
)

// FulfillmentMethod describes how an order line's quantity is sourced.
// It is fixed when the line is created and never changes.
type FulfillmentMethod string

const (
	MethodFromStock  FulfillmentMethod = "FROM_STOCK"
	MethodProduction FulfillmentMethod = "PRODUCTION"
	MethodTrading    FulfillmentMethod = "TRADING"
)

// FulfillmentStatus tracks how far an order line's satisfaction has come.
type FulfillmentStatus string

const (
	// StatusPending means no allocation has been made yet.
	StatusPending FulfillmentStatus = "PENDING"
	// StatusReserved means a ledger reservation exists (FROM_STOCK only).
	StatusReserved FulfillmentStatus = "RESERVED"
	// StatusProduksi means manufacturing is ongoing (PRODUCTION only).
	StatusProduksi FulfillmentStatus = "PRODUKSI"
	// StatusDone means the goods are physically in the warehouse but not
	// yet fully shipped.
	StatusDone FulfillmentStatus = "DONE"
	// StatusFulfilled is terminal: shippedQty >= qty.
	StatusFulfilled FulfillmentStatus = "FULFILLED"
)

// fulfillmentTransitions is the legal transition table. Returns to an open
// state after a recycle are legal in reverse, so DONE and FULFILLED can move
// back to PENDING, PRODUKSI or RESERVED.
var fulfillmentTransitions = map[FulfillmentStatus][]FulfillmentStatus{
	StatusPending:   {StatusReserved, StatusProduksi, StatusDone},
	StatusReserved:  {StatusDone, StatusFulfilled, StatusPending},
	StatusProduksi:  {StatusDone, StatusPending},
	StatusDone:      {StatusFulfilled, StatusPending, StatusProduksi, StatusReserved},
	StatusFulfilled: {StatusDone, StatusPending, StatusProduksi, StatusReserved},
}

// CanTransition reports whether moving from s to next is legal.
func (s FulfillmentStatus) CanTransition(next FulfillmentStatus) bool {
	if s == next {
		return true
	}
	for _, t := range fulfillmentTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// OrderStatus is the derived status of a work order. It is never stored
// authoritatively; it is recomputed from the order's items and shipment
// lines after every mutation.
type OrderStatus string

const (
	OrderQueued      OrderStatus = "QUEUED"
	OrderInProgress  OrderStatus = "IN_PROGRESS"
	OrderReadyToShip OrderStatus = "READY_TO_SHIP"
	OrderPartial     OrderStatus = "PARTIAL"
	OrderShipping    OrderStatus = "SHIPPING"
	OrderDone        OrderStatus = "DONE"
)

// Order is a customer work order (SPK) composed of one or more lines.
type Order struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	Number            string         `json:"number" gorm:"not null;uniqueIndex"`
	CustomerName      string         `json:"customer_name" gorm:"not null"`
	Status            OrderStatus    `json:"status" gorm:"not null;default:'QUEUED'"`
	WarehouseApproved bool           `json:"warehouse_approved" gorm:"not null;default:false"`
	InventoryApproved bool           `json:"inventory_approved" gorm:"not null;default:false"`
	Items             []OrderItem    `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// VisibleToShipping reports whether the order may enter the dispatch queue.
func (o *Order) VisibleToShipping() bool {
	return o.WarehouseApproved && o.InventoryApproved
}

// OrderItem is one product line of a work order.
//
// Qty is the ordered quantity. ApprovedQty accumulates across partial
// approvals and never exceeds Qty. ReadyQty is physically present,
// authorized, not yet on a truck. ShippedQty is recomputed from arrived
// shipment lines, never incremented ad hoc. RecycledQty counts quantity
// scrapped through returns.
type OrderItem struct {
	ID                  uint              `json:"id" gorm:"primaryKey"`
	OrderID             uint              `json:"order_id" gorm:"not null;index"`
	ItemID              uint              `json:"item_id" gorm:"not null;index"`
	Qty                 float64           `json:"qty" gorm:"not null"`
	FulfillmentMethod   FulfillmentMethod `json:"fulfillment_method" gorm:"not null"`
	FulfillmentStatus   FulfillmentStatus `json:"fulfillment_status" gorm:"not null;default:'PENDING'"`
	ApprovedQty         float64           `json:"approved_qty" gorm:"not null;default:0"`
	ProducedQty         float64           `json:"produced_qty" gorm:"not null;default:0"`
	ReadyQty            float64           `json:"ready_qty" gorm:"not null;default:0"`
	ShippedQty          float64           `json:"shipped_qty" gorm:"not null;default:0"`
	RecycledQty         float64           `json:"recycled_qty" gorm:"not null;default:0"`
	PurchaseOrderID     *uint             `json:"purchase_order_id,omitempty"`
	PurchaseOrderOK     bool              `json:"purchase_order_approved" gorm:"column:purchase_order_approved;not null;default:false"`
	ProductionRequestID *uint             `json:"production_request_id,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// TableName specifies the table name
func (OrderItem) TableName() string {
	return "order_items"
}

// CanApprove reports whether the line is currently eligible to be
// authorized for shipment. Trading lines need an approved purchase order
// behind them; production lines need manufacturing finished and output on
// the floor.
func (oi *OrderItem) CanApprove() bool {
	if oi.FulfillmentMethod == MethodTrading && !oi.PurchaseOrderOK {
		return false
	}
	if oi.FulfillmentMethod == MethodProduction {
		switch oi.FulfillmentStatus {
		case StatusDone, StatusFulfilled:
		default:
			return false
		}
		if oi.ReadyQty <= 0 {
			return false
		}
	}
	return oi.approvableDelta() > Epsilon
}

func (oi *OrderItem) approvableDelta() float64 {
	return oi.Qty - oi.ApprovedQty
}

// Approve authorizes delta more units for shipment, capped so ApprovedQty
// never exceeds Qty. Returns the delta actually applied. For stock and
// trading lines the authorized quantity goes straight onto the ready
// shelf; production output is already counted into ReadyQty when
// manufacturing completes.
func (oi *OrderItem) Approve(delta float64) (float64, error) {
	if delta <= 0 {
		return 0, &ValidationError{Field: "qty", Reason: "must be positive"}
	}
	if !oi.CanApprove() {
		return 0, &InvalidStateError{Entity: "order item", Current: string(oi.FulfillmentStatus), Op: "approve"}
	}
	applied := delta
	if remaining := oi.approvableDelta(); applied > remaining {
		applied = remaining
	}
	oi.ApprovedQty += applied
	if oi.FulfillmentMethod != MethodProduction {
		oi.ReadyQty += applied
	}
	return applied, nil
}

// RecordProduction accumulates manufactured output onto the warehouse
// floor and advances the production status once the ordered quantity is
// covered.
func (oi *OrderItem) RecordProduction(qty float64) error {
	if oi.FulfillmentMethod != MethodProduction {
		return &InvalidStateError{Entity: "order item", Current: string(oi.FulfillmentMethod), Op: "record production"}
	}
	if qty <= 0 {
		return &ValidationError{Field: "qty", Reason: "must be positive"}
	}
	oi.ProducedQty += qty
	oi.ReadyQty += qty
	if oi.ProducedQty >= oi.Qty-Epsilon {
		if oi.FulfillmentStatus.CanTransition(StatusDone) {
			oi.FulfillmentStatus = StatusDone
		}
	} else if oi.FulfillmentStatus == StatusPending {
		oi.FulfillmentStatus = StatusProduksi
	}
	return nil
}

// ReopenAfterRecycle moves the line back to an open state after scrapped
// goods withdrew part of its allocation. The target state is applied
// through the transition table, never assigned around it.
func (oi *OrderItem) ReopenAfterRecycle() {
	var target FulfillmentStatus
	switch oi.FulfillmentMethod {
	case MethodProduction:
		if oi.ProducedQty >= oi.Qty-Epsilon {
			target = StatusDone
		} else {
			target = StatusProduksi
		}
	case MethodFromStock:
		if oi.ApprovedQty > Epsilon {
			target = StatusReserved
		} else {
			target = StatusPending
		}
	default:
		if oi.ApprovedQty > Epsilon {
			target = StatusDone
		} else {
			target = StatusPending
		}
	}
	if oi.FulfillmentStatus.CanTransition(target) {
		oi.FulfillmentStatus = target
	}
}
