package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// GormUnitOfWorkFactory opens gorm-backed units of work. Do wraps fn in a
// single database transaction; the repositories handed to fn are bound to
// that transaction, so the whole operation commits or rolls back as one.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a unit of work factory
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// AutoMigrate creates the warehouse schema.
func (f *GormUnitOfWorkFactory) AutoMigrate() error {
	return f.db.AutoMigrate(
		&domain.Item{},
		&domain.StockHistoryEntry{},
		&domain.StockTransaction{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Shipment{},
		&domain.ShipmentLine{},
		&domain.ShipmentReturn{},
		&domain.WasteStockEntry{},
		&domain.ProductionRequest{},
		&domain.ProductionRequestLine{},
	)
}

// Do runs fn inside one transaction.
func (f *GormUnitOfWorkFactory) Do(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormUnitOfWork(tx))
	})
}

// View returns repositories bound to the base connection for reads.
func (f *GormUnitOfWorkFactory) View() domain.UnitOfWork {
	return newGormUnitOfWork(f.db)
}

type gormUnitOfWork struct {
	items      *GormItemRepository
	orders     *GormOrderRepository
	shipments  *GormShipmentRepository
	production *GormProductionRepository
}

func newGormUnitOfWork(tx *gorm.DB) *gormUnitOfWork {
	return &gormUnitOfWork{
		items:      &GormItemRepository{db: tx},
		orders:     &GormOrderRepository{db: tx},
		shipments:  &GormShipmentRepository{db: tx},
		production: &GormProductionRepository{db: tx},
	}
}

func (u *gormUnitOfWork) Items() domain.ItemRepository            { return u.items }
func (u *gormUnitOfWork) Orders() domain.OrderRepository          { return u.orders }
func (u *gormUnitOfWork) Shipments() domain.ShipmentRepository    { return u.shipments }
func (u *gormUnitOfWork) Production() domain.ProductionRepository { return u.production }

// forUpdate adds row locking on dialects that support it. The sqlite
// driver used in tests serializes writers anyway.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// GormItemRepository implements domain.ItemRepository using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

func (r *GormItemRepository) FindByID(id uint) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindByIDForUpdate(id uint) (*domain.Item, error) {
	var item domain.Item
	if err := forUpdate(r.db).First(&item, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindByCode(code string) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.Where("code = ?", code).First(&item).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

func (r *GormItemRepository) Save(item *domain.Item) error {
	return r.db.Save(item).Error
}

func (r *GormItemRepository) AppendHistory(entry *domain.StockHistoryEntry) error {
	return r.db.Create(entry).Error
}

func (r *GormItemRepository) History(itemID uint, limit, offset int) ([]domain.StockHistoryEntry, error) {
	var entries []domain.StockHistoryEntry
	err := r.db.Where("item_id = ?", itemID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *GormItemRepository) CreateTransaction(tx *domain.StockTransaction) error {
	return r.db.Create(tx).Error
}

// GormOrderRepository implements domain.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func (r *GormOrderRepository) FindByID(id uint) (*domain.Order, error) {
	var order domain.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIDs(ids []uint) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.Preload("Items").Where("id IN ?", ids).Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) FindItemByID(id uint) (*domain.OrderItem, error) {
	var item domain.OrderItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

func (r *GormOrderRepository) FindItemByIDForUpdate(id uint) (*domain.OrderItem, error) {
	var item domain.OrderItem
	if err := forUpdate(r.db).First(&item, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

func (r *GormOrderRepository) ItemsByOrder(orderID uint) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := r.db.Where("order_id = ?", orderID).Find(&items).Error
	return items, err
}

func (r *GormOrderRepository) SaveItem(item *domain.OrderItem) error {
	return r.db.Save(item).Error
}

func (r *GormOrderRepository) UpdateStatus(orderID uint, status domain.OrderStatus) error {
	return r.db.Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

// GormShipmentRepository implements domain.ShipmentRepository using GORM.
type GormShipmentRepository struct {
	db *gorm.DB
}

func (r *GormShipmentRepository) Create(shipment *domain.Shipment) error {
	return r.db.Create(shipment).Error
}

func (r *GormShipmentRepository) Save(shipment *domain.Shipment) error {
	return r.db.Omit("Lines").Save(shipment).Error
}

func (r *GormShipmentRepository) FindByID(id uint) (*domain.Shipment, error) {
	var shipment domain.Shipment
	if err := r.db.Preload("Lines").First(&shipment, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &shipment, nil
}

func (r *GormShipmentRepository) FindAll(limit, offset int) ([]domain.Shipment, error) {
	var shipments []domain.Shipment
	err := r.db.Preload("Lines").
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&shipments).Error
	return shipments, err
}

func (r *GormShipmentRepository) FindLineByID(id uint) (*domain.ShipmentLine, error) {
	var line domain.ShipmentLine
	if err := r.db.First(&line, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &line, nil
}

func (r *GormShipmentRepository) FindLineByIDForUpdate(id uint) (*domain.ShipmentLine, error) {
	var line domain.ShipmentLine
	if err := forUpdate(r.db).First(&line, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &line, nil
}

func (r *GormShipmentRepository) SaveLine(line *domain.ShipmentLine) error {
	return r.db.Save(line).Error
}

func (r *GormShipmentRepository) LineStatesByOrder(orderID uint) ([]domain.LineState, error) {
	return r.lineStates("order_items.order_id = ?", orderID)
}

func (r *GormShipmentRepository) LineStatesByOrderItem(orderItemID uint) ([]domain.LineState, error) {
	return r.lineStates("shipment_lines.order_item_id = ?", orderItemID)
}

func (r *GormShipmentRepository) lineStates(cond string, arg interface{}) ([]domain.LineState, error) {
	type row struct {
		OrderItemID uint
		Qty         float64
		Arrived     bool
	}
	var rows []row
	err := r.db.Table("shipment_lines").
		Select("shipment_lines.order_item_id AS order_item_id, shipment_lines.qty AS qty, shipments.arrived_at IS NOT NULL AS arrived").
		Joins("JOIN shipments ON shipments.id = shipment_lines.shipment_id").
		Joins("JOIN order_items ON order_items.id = shipment_lines.order_item_id").
		Where("shipments.deleted_at IS NULL").
		Where(cond, arg).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	states := make([]domain.LineState, 0, len(rows))
	for _, rw := range rows {
		states = append(states, domain.LineState{OrderItemID: rw.OrderItemID, Qty: rw.Qty, Arrived: rw.Arrived})
	}
	return states, nil
}

func (r *GormShipmentRepository) CreateReturn(ret *domain.ShipmentReturn) error {
	return r.db.Create(ret).Error
}

func (r *GormShipmentRepository) CreateWaste(entry *domain.WasteStockEntry) error {
	return r.db.Create(entry).Error
}

func (r *GormShipmentRepository) ListWaste(limit, offset int) ([]domain.WasteStockEntry, error) {
	var entries []domain.WasteStockEntry
	err := r.db.Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, err
}

// GormProductionRepository implements domain.ProductionRepository using GORM.
type GormProductionRepository struct {
	db *gorm.DB
}

func (r *GormProductionRepository) FindByID(id uint) (*domain.ProductionRequest, error) {
	var request domain.ProductionRequest
	if err := r.db.Preload("Lines").First(&request, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &request, nil
}

func (r *GormProductionRepository) FindByIDForUpdate(id uint) (*domain.ProductionRequest, error) {
	var request domain.ProductionRequest
	if err := forUpdate(r.db).Preload("Lines").First(&request, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &request, nil
}

func (r *GormProductionRepository) Save(request *domain.ProductionRequest) error {
	return r.db.Omit("Lines").Save(request).Error
}
