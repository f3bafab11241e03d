package query

import (
	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// StockCardQuery represents the query for one item's stock card
type StockCardQuery struct {
	ItemID uint
	Limit  int
	Offset int
}

// StockCard pairs the current item state with its movement history, the
// classic warehouse audit view.
type StockCard struct {
	Item    *domain.Item               `json:"item"`
	History []domain.StockHistoryEntry `json:"history"`
}

// StockCardHandler handles stock card query
type StockCardHandler struct {
	uowf domain.UnitOfWorkFactory
}

// NewStockCardHandler creates a new stock card handler
func NewStockCardHandler(uowf domain.UnitOfWorkFactory) *StockCardHandler {
	return &StockCardHandler{uowf: uowf}
}

// Handle executes the stock card query
func (h *StockCardHandler) Handle(query StockCardQuery) (*StockCard, error) {
	if query.ItemID == 0 {
		return nil, &domain.ValidationError{Field: "item_id", Reason: "is required"}
	}
	if query.Limit == 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	uow := h.uowf.View()
	item, err := uow.Items().FindByID(query.ItemID)
	if err != nil {
		return nil, err
	}
	history, err := uow.Items().History(item.ID, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}
	return &StockCard{Item: item, History: history}, nil
}
