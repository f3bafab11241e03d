package query

import (
	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// ListWasteQuery represents the query to list waste stock entries
type ListWasteQuery struct {
	Limit  int
	Offset int
}

// ListWasteHandler handles list waste query
type ListWasteHandler struct {
	uowf domain.UnitOfWorkFactory
}

// NewListWasteHandler creates a new list waste handler
func NewListWasteHandler(uowf domain.UnitOfWorkFactory) *ListWasteHandler {
	return &ListWasteHandler{uowf: uowf}
}

// Handle executes the list waste query
func (h *ListWasteHandler) Handle(query ListWasteQuery) ([]domain.WasteStockEntry, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}
	if query.Limit > 100 {
		query.Limit = 100
	}
	return h.uowf.View().Shipments().ListWaste(query.Limit, query.Offset)
}
