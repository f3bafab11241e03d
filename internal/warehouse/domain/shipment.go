package domain

import (
	"time"

	"gorm.io/gorm"
)

// Shipment is one dispatch event: a driver and vehicle leaving with a set
// of order-item lines. ArrivedAt is nil while the truck is on the road and
// set exactly once on arrival confirmation; it is immutable afterwards.
type Shipment struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	DriverName       string         `json:"driver_name" gorm:"not null"`
	VehiclePlate     string         `json:"vehicle_plate"`
	DepartedAt       time.Time      `json:"departed_at" gorm:"not null"`
	EstimatedArrival *time.Time     `json:"estimated_arrival,omitempty"`
	ArrivedAt        *time.Time     `json:"arrived_at,omitempty"`
	ReceiverName     string         `json:"receiver_name,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	PhotoURL         string         `json:"photo_url,omitempty"`
	Lines            []ShipmentLine `json:"lines" gorm:"foreignKey:ShipmentID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Shipment) TableName() string {
	return "shipments"
}

// Arrived reports whether the shipment has been confirmed delivered.
func (s *Shipment) Arrived() bool {
	return s.ArrivedAt != nil
}

// ConfirmArrival sets the arrival timestamp once.
func (s *Shipment) ConfirmArrival(at time.Time, receiver, notes, photoURL string) error {
	if s.Arrived() {
		return &InvalidStateError{Entity: "shipment", Current: "ARRIVED", Op: "confirm arrival"}
	}
	if receiver == "" {
		return &ValidationError{Field: "receiver_name", Reason: "is required"}
	}
	s.ArrivedAt = &at
	s.ReceiverName = receiver
	if notes != "" {
		s.Notes = notes
	}
	s.PhotoURL = photoURL
	return nil
}

// ShipmentLine links a shipment to one order item with a quantity. The
// quantity represents goods physically in transit until the parent
// shipment arrives; returns decrement it.
type ShipmentLine struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ShipmentID  uint      `json:"shipment_id" gorm:"not null;index"`
	OrderItemID uint      `json:"order_item_id" gorm:"not null;index"`
	Qty         float64   `json:"qty" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (ShipmentLine) TableName() string {
	return "shipment_lines"
}

// ReturnReason says what happens to recalled goods.
type ReturnReason string

const (
	// ReturnRepack puts the goods back on the ready-to-ship shelf, still
	// authorized.
	ReturnRepack ReturnReason = "REPACK"
	// ReturnRecycle writes the goods off as waste and withdraws the
	// authorization, reopening allocation or production.
	ReturnRecycle ReturnReason = "RECYCLE"
)

// ShipmentReturn records one return action against a shipment line.
type ShipmentReturn struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	ShipmentLineID uint         `json:"shipment_line_id" gorm:"not null;index"`
	Qty            float64      `json:"qty" gorm:"not null"`
	Reason         ReturnReason `json:"reason" gorm:"not null"`
	Notes          string       `json:"notes"`
	Actor          string       `json:"actor" gorm:"not null"`
	CreatedAt      time.Time    `json:"created_at"`
}

// TableName specifies the table name
func (ShipmentReturn) TableName() string {
	return "shipment_returns"
}

// WasteStockEntry is scrap produced by a recycle return, kept around for
// later reprocessing.
type WasteStockEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ItemID    uint      `json:"item_id" gorm:"not null;index"`
	OrderID   uint      `json:"order_id" gorm:"not null;index"`
	Qty       float64   `json:"qty" gorm:"not null"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (WasteStockEntry) TableName() string {
	return "waste_stock_entries"
}
