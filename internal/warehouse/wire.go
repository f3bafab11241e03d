//go:build wireinject
// +build wireinject

package warehouse

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/gudangkita/warehouse-service/internal/warehouse/delivery/http"
	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/internal/warehouse/repository"
	"github.com/gudangkita/warehouse-service/kafka"
)

// ProvideUnitOfWorkFactory provides the transactional repository factory
func ProvideUnitOfWorkFactory(db *gorm.DB) domain.UnitOfWorkFactory {
	return repository.NewTracingUnitOfWorkFactory(repository.NewGormUnitOfWorkFactory(db))
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideUnitOfWorkFactory,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, events *kafka.Publisher) (*http.WarehouseHandler, error) {
	wire.Build(
		RepositorySet,
		http.NewWarehouseHandler,
	)
	return nil, nil
}
