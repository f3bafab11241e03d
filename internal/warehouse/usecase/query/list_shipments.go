package query

import (
	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// ListShipmentsQuery represents the query to list shipments
type ListShipmentsQuery struct {
	Limit  int
	Offset int
}

// ListShipmentsHandler handles list shipments query
type ListShipmentsHandler struct {
	uowf domain.UnitOfWorkFactory
}

// NewListShipmentsHandler creates a new list shipments handler
func NewListShipmentsHandler(uowf domain.UnitOfWorkFactory) *ListShipmentsHandler {
	return &ListShipmentsHandler{uowf: uowf}
}

// Handle executes the list shipments query
func (h *ListShipmentsHandler) Handle(query ListShipmentsQuery) ([]domain.Shipment, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}
	if query.Limit > 100 {
		query.Limit = 100
	}
	return h.uowf.View().Shipments().FindAll(query.Limit, query.Offset)
}
