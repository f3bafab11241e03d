package query

import (
	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// GetShipmentQuery represents the query to get a shipment
type GetShipmentQuery struct {
	ID uint
}

// GetShipmentHandler handles get shipment query
type GetShipmentHandler struct {
	uowf domain.UnitOfWorkFactory
}

// NewGetShipmentHandler creates a new get shipment handler
func NewGetShipmentHandler(uowf domain.UnitOfWorkFactory) *GetShipmentHandler {
	return &GetShipmentHandler{uowf: uowf}
}

// Handle executes the get shipment query
func (h *GetShipmentHandler) Handle(query GetShipmentQuery) (*domain.Shipment, error) {
	if query.ID == 0 {
		return nil, &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	return h.uowf.View().Shipments().FindByID(query.ID)
}
