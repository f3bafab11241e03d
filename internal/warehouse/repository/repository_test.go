package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

func newTestFactory(t *testing.T) *GormUnitOfWorkFactory {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite loses the database when a second pooled
	// connection opens.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	factory := NewGormUnitOfWorkFactory(db)
	require.NoError(t, factory.AutoMigrate())
	return factory
}

func seedItem(t *testing.T, factory *GormUnitOfWorkFactory, item *domain.Item) *domain.Item {
	t.Helper()
	require.NoError(t, factory.View().Items().Save(item))
	return item
}

func TestLedgerAdjustRoundTrip(t *testing.T) {
	factory := newTestFactory(t)
	ledger := domain.NewStockLedger()
	item := seedItem(t, factory, &domain.Item{Code: "TPG-01", Name: "Tepung", CurrentStock: 100})

	err := factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		m, err := ledger.Adjust(uow, item.ID, 50, domain.DirectionIn, "gudang1", "goods in", nil)
		require.NoError(t, err)
		assert.InDelta(t, 100, m.Previous, domain.Epsilon)
		assert.InDelta(t, 150, m.New, domain.Epsilon)

		m, err = ledger.Adjust(uow, item.ID, 30, domain.DirectionOut, "gudang1", "spoilage", nil)
		require.NoError(t, err)
		assert.InDelta(t, 120, m.New, domain.Epsilon)
		return nil
	})
	require.NoError(t, err)

	reloaded, err := factory.View().Items().FindByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 120, reloaded.CurrentStock, domain.Epsilon)

	history, err := factory.View().Items().History(item.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	assert.InDelta(t, -30, history[0].Delta, domain.Epsilon)
	assert.InDelta(t, 50, history[1].Delta, domain.Epsilon)
}

func TestLedgerAdjustOutRejectsOverdraw(t *testing.T) {
	factory := newTestFactory(t)
	ledger := domain.NewStockLedger()
	item := seedItem(t, factory, &domain.Item{Code: "TPG-01", Name: "Tepung", CurrentStock: 20})

	err := factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		_, err := ledger.Adjust(uow, item.ID, 25, domain.DirectionOut, "gudang1", "too much", nil)
		return err
	})

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, domain.KindInsufficientStock, stockErr.Kind)
	assert.InDelta(t, 5, stockErr.Shortfall(), domain.Epsilon)

	// The failed transaction must leave no trace.
	reloaded, err := factory.View().Items().FindByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 20, reloaded.CurrentStock, domain.Epsilon)
	history, err := factory.View().Items().History(item.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLedgerAdjustOutPreservesReservations(t *testing.T) {
	factory := newTestFactory(t)
	ledger := domain.NewStockLedger()
	item := seedItem(t, factory, &domain.Item{Code: "TPG-01", Name: "Tepung", CurrentStock: 100, ReservedStock: 40})

	err := factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		_, err := ledger.Adjust(uow, item.ID, 70, domain.DirectionOut, "gudang1", "shrinkage", nil)
		return err
	})

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, domain.KindInsufficientAvailableStock, stockErr.Kind)
	assert.InDelta(t, 10, stockErr.Shortfall(), domain.Epsilon)

	// Promised stock stays untouchable; only the free portion can leave.
	err = factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		_, err := ledger.Adjust(uow, item.ID, 60, domain.DirectionOut, "gudang1", "shrinkage", nil)
		return err
	})
	require.NoError(t, err)

	reloaded, err := factory.View().Items().FindByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40, reloaded.CurrentStock, domain.Epsilon)
	assert.InDelta(t, 40, reloaded.ReservedStock, domain.Epsilon)
}

func TestLedgerReserveAgainstAvailableStock(t *testing.T) {
	factory := newTestFactory(t)
	ledger := domain.NewStockLedger()
	item := seedItem(t, factory, &domain.Item{Code: "TPG-01", Name: "Tepung", CurrentStock: 100, ReservedStock: 30})

	// 70 available: reserving 80 must fail even though 100 are physically
	// present.
	err := factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		_, err := ledger.Reserve(uow, item.ID, 80, "gudang1", "order SPK-001")
		return err
	})
	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, domain.KindInsufficientAvailableStock, stockErr.Kind)
	assert.InDelta(t, 10, stockErr.Shortfall(), domain.Epsilon)

	err = factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		m, err := ledger.Reserve(uow, item.ID, 70, "gudang1", "order SPK-001")
		require.NoError(t, err)
		assert.InDelta(t, 100, m.NewReserved, domain.Epsilon)
		return nil
	})
	require.NoError(t, err)

	reloaded, err := factory.View().Items().FindByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, reloaded.CurrentStock, domain.Epsilon)
	assert.InDelta(t, 100, reloaded.ReservedStock, domain.Epsilon)
	assert.InDelta(t, 0, reloaded.AvailableStock(), domain.Epsilon)

	// Reservations leave a zero-delta audit entry.
	history, err := factory.View().Items().History(item.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Zero(t, history[0].Delta)
	assert.Contains(t, history[0].Reason, domain.ReasonTagReserve)
}

func TestLedgerReserveReleaseRoundTrip(t *testing.T) {
	factory := newTestFactory(t)
	ledger := domain.NewStockLedger()
	item := seedItem(t, factory, &domain.Item{Code: "TPG-01", Name: "Tepung", CurrentStock: 100})

	err := factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		if _, err := ledger.Reserve(uow, item.ID, 40, "gudang1", "order SPK-001"); err != nil {
			return err
		}
		_, err := ledger.Release(uow, item.ID, 40, "gudang1", "order SPK-001 cancelled")
		return err
	})
	require.NoError(t, err)

	reloaded, err := factory.View().Items().FindByID(item.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.ReservedStock)
	assert.InDelta(t, 100, reloaded.CurrentStock, domain.Epsilon)

	err = factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		_, err := ledger.Release(uow, item.ID, 1, "gudang1", "nothing held")
		return err
	})
	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, domain.KindOverRelease, stockErr.Kind)
}

func TestLedgerFulfillFromReservation(t *testing.T) {
	factory := newTestFactory(t)
	ledger := domain.NewStockLedger()
	item := seedItem(t, factory, &domain.Item{Code: "TPG-01", Name: "Tepung", CurrentStock: 100, ReservedStock: 60})

	err := factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		m, err := ledger.FulfillFromReservation(uow, item.ID, 60, "gudang1", "shipped SPK-001", nil)
		require.NoError(t, err)
		assert.InDelta(t, 40, m.New, domain.Epsilon)
		return nil
	})
	require.NoError(t, err)

	reloaded, err := factory.View().Items().FindByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40, reloaded.CurrentStock, domain.Epsilon)
	assert.Zero(t, reloaded.ReservedStock)

	err = factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		_, err := ledger.FulfillFromReservation(uow, item.ID, 10, "gudang1", "again", nil)
		return err
	})
	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, domain.KindInsufficientReservedStock, stockErr.Kind)
}

func TestFindByIDTranslatesNotFound(t *testing.T) {
	factory := newTestFactory(t)

	_, err := factory.View().Items().FindByID(999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = factory.View().Orders().FindByID(999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = factory.View().Shipments().FindLineByID(999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = factory.View().Production().FindByID(999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLineStates(t *testing.T) {
	factory := newTestFactory(t)
	uow := factory.View()

	order := &domain.Order{Number: "SPK-001", CustomerName: "Toko Jaya", Status: domain.OrderQueued}
	require.NoError(t, factory.db.Create(order).Error)
	itemA := &domain.OrderItem{OrderID: order.ID, ItemID: 1, Qty: 100, FulfillmentMethod: domain.MethodFromStock, FulfillmentStatus: domain.StatusPending}
	itemB := &domain.OrderItem{OrderID: order.ID, ItemID: 2, Qty: 50, FulfillmentMethod: domain.MethodFromStock, FulfillmentStatus: domain.StatusPending}
	require.NoError(t, uow.Orders().SaveItem(itemA))
	require.NoError(t, uow.Orders().SaveItem(itemB))

	arrived := time.Now()
	delivered := &domain.Shipment{
		DriverName: "Budi",
		DepartedAt: time.Now().Add(-2 * time.Hour),
		ArrivedAt:  &arrived,
		Lines: []domain.ShipmentLine{
			{OrderItemID: itemA.ID, Qty: 30},
			{OrderItemID: itemB.ID, Qty: 20},
		},
	}
	require.NoError(t, uow.Shipments().Create(delivered))

	inTransit := &domain.Shipment{
		DriverName: "Andi",
		DepartedAt: time.Now(),
		Lines: []domain.ShipmentLine{
			{OrderItemID: itemA.ID, Qty: 40},
		},
	}
	require.NoError(t, uow.Shipments().Create(inTransit))

	states, err := uow.Shipments().LineStatesByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.InDelta(t, 30, domain.RecomputeShippedQty(itemA.ID, states), domain.Epsilon)
	assert.InDelta(t, 40, domain.OnTruckQty(itemA.ID, states), domain.Epsilon)
	assert.InDelta(t, 20, domain.RecomputeShippedQty(itemB.ID, states), domain.Epsilon)

	states, err = uow.Shipments().LineStatesByOrderItem(itemB.ID)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, states[0].Arrived)

	// Soft-deleted shipments drop out of the view.
	require.NoError(t, factory.db.Delete(inTransit).Error)
	states, err = uow.Shipments().LineStatesByOrder(order.ID)
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	factory := newTestFactory(t)
	ledger := domain.NewStockLedger()
	item := seedItem(t, factory, &domain.Item{Code: "TPG-01", Name: "Tepung", CurrentStock: 100})

	boom := assert.AnError
	err := factory.Do(context.Background(), func(uow domain.UnitOfWork) error {
		if _, err := ledger.Adjust(uow, item.ID, 50, domain.DirectionIn, "gudang1", "goods in", nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := factory.View().Items().FindByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, reloaded.CurrentStock, domain.Epsilon)
}
