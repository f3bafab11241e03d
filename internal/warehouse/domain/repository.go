package domain

import "context"

// ItemRepository defines the contract for item and ledger data access.
type ItemRepository interface {
	FindByID(id uint) (*Item, error)
	FindByIDForUpdate(id uint) (*Item, error)
	FindByCode(code string) (*Item, error)
	Save(item *Item) error
	AppendHistory(entry *StockHistoryEntry) error
	History(itemID uint, limit, offset int) ([]StockHistoryEntry, error)
	CreateTransaction(tx *StockTransaction) error
}

// OrderRepository defines the contract for work order data access.
type OrderRepository interface {
	FindByID(id uint) (*Order, error)
	FindByIDs(ids []uint) ([]Order, error)
	FindItemByID(id uint) (*OrderItem, error)
	FindItemByIDForUpdate(id uint) (*OrderItem, error)
	ItemsByOrder(orderID uint) ([]OrderItem, error)
	SaveItem(item *OrderItem) error
	UpdateStatus(orderID uint, status OrderStatus) error
}

// ShipmentRepository defines the contract for shipment data access.
type ShipmentRepository interface {
	Create(shipment *Shipment) error
	Save(shipment *Shipment) error
	FindByID(id uint) (*Shipment, error)
	FindAll(limit, offset int) ([]Shipment, error)
	FindLineByID(id uint) (*ShipmentLine, error)
	FindLineByIDForUpdate(id uint) (*ShipmentLine, error)
	SaveLine(line *ShipmentLine) error
	LineStatesByOrder(orderID uint) ([]LineState, error)
	LineStatesByOrderItem(orderItemID uint) ([]LineState, error)
	CreateReturn(ret *ShipmentReturn) error
	CreateWaste(entry *WasteStockEntry) error
	ListWaste(limit, offset int) ([]WasteStockEntry, error)
}

// ProductionRepository defines the contract for production request access.
type ProductionRepository interface {
	FindByID(id uint) (*ProductionRequest, error)
	FindByIDForUpdate(id uint) (*ProductionRequest, error)
	Save(request *ProductionRequest) error
}

// UnitOfWork groups the repositories bound to one transaction. Every
// multi-step operation runs against a single unit of work; helpers never
// open their own.
type UnitOfWork interface {
	Items() ItemRepository
	Orders() OrderRepository
	Shipments() ShipmentRepository
	Production() ProductionRepository
}

// UnitOfWorkFactory opens units of work. Do runs fn inside one atomic
// transaction: any error rolls the whole thing back, so partial mutation
// is never observable. View returns repositories bound to the base
// connection for read paths.
type UnitOfWorkFactory interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error
	View() UnitOfWork
}
