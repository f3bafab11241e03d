package domain

import (
	"time"

	"gorm.io/gorm"
)

// ProductionRequestStatus is the lifecycle of a factory-floor request.
type ProductionRequestStatus string

const (
	ProductionPending  ProductionRequestStatus = "PENDING"
	ProductionApproved ProductionRequestStatus = "APPROVED"
	ProductionRejected ProductionRequestStatus = "REJECTED"
)

// ProductionRequest asks the warehouse to release raw material for
// manufacturing order items. Approval debits every line outright; raw
// material for production is consumed, not staged.
type ProductionRequest struct {
	ID          uint                    `json:"id" gorm:"primaryKey"`
	OrderNumber string                  `json:"order_number" gorm:"not null;index"`
	Status      ProductionRequestStatus `json:"status" gorm:"not null;default:'PENDING'"`
	RequestedBy string                  `json:"requested_by" gorm:"not null"`
	ApprovedBy  string                  `json:"approved_by"`
	ApprovedAt  *time.Time              `json:"approved_at,omitempty"`
	Lines       []ProductionRequestLine `json:"lines" gorm:"foreignKey:ProductionRequestID"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	DeletedAt   gorm.DeletedAt          `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (ProductionRequest) TableName() string {
	return "production_requests"
}

// Approve marks the request approved. Only pending requests may be
// approved.
func (pr *ProductionRequest) Approve(actor string, at time.Time) error {
	if pr.Status != ProductionPending {
		return &InvalidStateError{Entity: "production request", Current: string(pr.Status), Op: "approve"}
	}
	pr.Status = ProductionApproved
	pr.ApprovedBy = actor
	pr.ApprovedAt = &at
	return nil
}

// ProductionRequestLine is one raw material need of a request.
type ProductionRequestLine struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	ProductionRequestID uint      `json:"production_request_id" gorm:"not null;index"`
	ItemID              uint      `json:"item_id" gorm:"not null;index"`
	Qty                 float64   `json:"qty" gorm:"not null"`
	CreatedAt           time.Time `json:"created_at"`
}

// TableName specifies the table name
func (ProductionRequestLine) TableName() string {
	return "production_request_lines"
}
