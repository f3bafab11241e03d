package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item represents a stock-keeping unit held by the warehouse.
// CurrentStock is the physical quantity on hand; ReservedStock is the
// subset of it promised to orders but not yet picked. Both fields are
// mutated only through the StockLedger primitives.
type Item struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Code          string          `json:"code" gorm:"not null;uniqueIndex"`
	Name          string          `json:"name" gorm:"not null"`
	Unit          string          `json:"unit" gorm:"default:'kg'"`
	CurrentStock  float64         `json:"current_stock" gorm:"not null;default:0"`
	ReservedStock float64         `json:"reserved_stock" gorm:"not null;default:0"`
	UnitCost      decimal.Decimal `json:"unit_cost" gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Item) TableName() string {
	return "items"
}

// AvailableStock is the quantity eligible for a new reservation.
func (i *Item) AvailableStock() float64 {
	return i.CurrentStock - i.ReservedStock
}

// StockHistoryEntry is one immutable audit record of a ledger mutation.
// Reserve and release entries carry a zero stock delta but a tagged reason,
// so the audit trail stays continuous across promises and physical moves.
type StockHistoryEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ItemID        uint      `json:"item_id" gorm:"not null;index"`
	PreviousStock float64   `json:"previous_stock" gorm:"not null"`
	NewStock      float64   `json:"new_stock" gorm:"not null"`
	Delta         float64   `json:"delta" gorm:"not null"`
	Reason        string    `json:"reason" gorm:"not null"`
	TransactionID *uint     `json:"transaction_id,omitempty" gorm:"index"`
	Actor         string    `json:"actor" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name
func (StockHistoryEntry) TableName() string {
	return "stock_histories"
}

// Reason tags prepended to audit entries written by the ledger primitives.
const (
	ReasonTagReserve = "[RESERVE]"
	ReasonTagRelease = "[RELEASE]"
	ReasonTagFulfill = "[FULFILL]"
	ReasonTagReturn  = "[RETURN]"
)

// Stock movement directions.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Movement source categories.
type TransactionSource string

const (
	SourceProduction TransactionSource = "PRODUCTION"
	SourceTrading    TransactionSource = "TRADING"
	SourceOrder      TransactionSource = "CUSTOMER_ORDER"
	SourceRecycling  TransactionSource = "RECYCLING"
	SourceAdjustment TransactionSource = "ADJUSTMENT"
)

// StockTransaction is a business-level goods movement, distinct from the
// audit trail. One ledger mutation usually pairs with one transaction
// record; pure reservations carry none.
type StockTransaction struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	ItemID      uint              `json:"item_id" gorm:"not null;index"`
	Type        Direction         `json:"type" gorm:"not null"`
	Source      TransactionSource `json:"source" gorm:"not null"`
	Quantity    float64           `json:"quantity" gorm:"not null"`
	UnitPrice   *decimal.Decimal  `json:"unit_price,omitempty" gorm:"type:decimal(18,4)"`
	OrderNumber string            `json:"order_number,omitempty" gorm:"index"`
	Actor       string            `json:"actor" gorm:"not null"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName specifies the table name
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// WeightedAverageCost computes the moving weighted average unit cost after
// receiving inQty units at inPrice on top of oldQty units at oldCost.
func WeightedAverageCost(oldQty float64, oldCost decimal.Decimal, inQty float64, inPrice decimal.Decimal) decimal.Decimal {
	if oldQty <= Epsilon {
		return inPrice
	}
	oldQ := decimal.NewFromFloat(oldQty)
	inQ := decimal.NewFromFloat(inQty)
	totalValue := oldQ.Mul(oldCost).Add(inQ.Mul(inPrice))
	totalQty := oldQ.Add(inQ)
	if totalQty.IsZero() {
		return oldCost
	}
	return totalValue.Div(totalQty).Round(4)
}
