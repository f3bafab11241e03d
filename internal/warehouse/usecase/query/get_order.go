package query

import (
	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// GetOrderQuery represents the query to get an order with its items
type GetOrderQuery struct {
	ID uint
}

// OrderView is the read model returned for a single order. OnTruckQty
// per item is derived from live shipment lines rather than stored.
type OrderView struct {
	Order *domain.Order   `json:"order"`
	Items []OrderItemView `json:"items"`
}

// OrderItemView augments an order item with derived shipping figures.
type OrderItemView struct {
	domain.OrderItem
	OnTruckQty   float64 `json:"on_truck_qty"`
	RemainingQty float64 `json:"remaining_qty"`
}

// GetOrderHandler handles get order query
type GetOrderHandler struct {
	uowf domain.UnitOfWorkFactory
}

// NewGetOrderHandler creates a new get order handler
func NewGetOrderHandler(uowf domain.UnitOfWorkFactory) *GetOrderHandler {
	return &GetOrderHandler{uowf: uowf}
}

// Handle executes the get order query
func (h *GetOrderHandler) Handle(query GetOrderQuery) (*OrderView, error) {
	if query.ID == 0 {
		return nil, &domain.ValidationError{Field: "id", Reason: "is required"}
	}

	uow := h.uowf.View()
	order, err := uow.Orders().FindByID(query.ID)
	if err != nil {
		return nil, err
	}
	items, err := uow.Orders().ItemsByOrder(order.ID)
	if err != nil {
		return nil, err
	}

	views := make([]OrderItemView, 0, len(items))
	for i := range items {
		lines, err := uow.Shipments().LineStatesByOrderItem(items[i].ID)
		if err != nil {
			return nil, err
		}
		views = append(views, OrderItemView{
			OrderItem:    items[i],
			OnTruckQty:   domain.OnTruckQty(items[i].ID, lines),
			RemainingQty: items[i].Qty - items[i].ShippedQty,
		})
	}

	return &OrderView{Order: order, Items: views}, nil
}
