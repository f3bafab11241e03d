package kafka

import "time"

// StockAdjustedEvent is published after a committed ledger adjustment.
type StockAdjustedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ItemID    uint      `json:"item_id"`
	Direction string    `json:"direction"`
	Qty       float64   `json:"qty"`
	NewStock  float64   `json:"new_stock"`
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// ShipmentDispatchedEvent is published when a truck leaves the warehouse.
type ShipmentDispatchedEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	ShipmentID uint      `json:"shipment_id"`
	OrderIDs   []uint    `json:"order_ids"`
	DriverName string    `json:"driver_name"`
	LineCount  int       `json:"line_count"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}

// ShipmentArrivedEvent is published after arrival confirmation commits.
type ShipmentArrivedEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	ShipmentID   uint      `json:"shipment_id"`
	ReceiverName string    `json:"receiver_name"`
	Actor        string    `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
}

// ShipmentLineReturnedEvent is published after a return is processed.
type ShipmentLineReturnedEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	ShipmentLineID uint      `json:"shipment_line_id"`
	OrderItemID    uint      `json:"order_item_id"`
	Qty            float64   `json:"qty"`
	Reason         string    `json:"reason"`
	Actor          string    `json:"actor"`
	Timestamp      time.Time `json:"timestamp"`
}

// ProductionCompletedEvent arrives from the factory-floor system when a
// batch of an order item finishes manufacturing.
type ProductionCompletedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderItemID uint      `json:"order_item_id"`
	Qty         float64   `json:"qty"`
	Operator    string    `json:"operator"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeStockAdjusted        = "warehouse.stock_adjusted"
	EventTypeShipmentDispatched   = "warehouse.shipment_dispatched"
	EventTypeShipmentArrived      = "warehouse.shipment_arrived"
	EventTypeShipmentLineReturned = "warehouse.shipment_line_returned"
	EventTypeProductionCompleted  = "factory.production_completed"
)

// Kafka topics
const (
	TopicStockMovements      = "warehouse-stock-movements"
	TopicShipments           = "warehouse-shipments"
	TopicProductionCompleted = "factory-production-completed"
)
