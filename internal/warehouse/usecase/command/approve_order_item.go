package command

import (
	"context"
	"fmt"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

// ApproveOrderItemCommand represents the command to authorize quantity for shipment
type ApproveOrderItemCommand struct {
	OrderItemID uint
	Qty         float64
	Actor       string
}

// ApproveOrderItemResult reports what the approval actually did.
type ApproveOrderItemResult struct {
	AppliedQty  float64            `json:"applied_qty"`
	ApprovedQty float64            `json:"approved_qty"`
	ReadyQty    float64            `json:"ready_qty"`
	OrderStatus domain.OrderStatus `json:"order_status"`
}

// ApproveOrderItemHandler handles the approval action. Approval authorizes
// quantity for dispatch; for stock-sourced lines it also places the ledger
// reservation. Physical stock only moves later, at dispatch and arrival.
type ApproveOrderItemHandler struct {
	uowf   domain.UnitOfWorkFactory
	ledger *domain.StockLedger
}

// NewApproveOrderItemHandler creates a new approve order item handler
func NewApproveOrderItemHandler(uowf domain.UnitOfWorkFactory, ledger *domain.StockLedger) *ApproveOrderItemHandler {
	return &ApproveOrderItemHandler{uowf: uowf, ledger: ledger}
}

// Handle executes the approve order item command
func (h *ApproveOrderItemHandler) Handle(ctx context.Context, cmd ApproveOrderItemCommand) (*ApproveOrderItemResult, error) {
	if cmd.Qty <= 0 {
		return nil, &domain.ValidationError{Field: "qty", Reason: "must be positive"}
	}

	var result ApproveOrderItemResult
	err := h.uowf.Do(ctx, func(uow domain.UnitOfWork) error {
		item, err := uow.Orders().FindItemByIDForUpdate(cmd.OrderItemID)
		if err != nil {
			return err
		}
		order, err := uow.Orders().FindByID(item.OrderID)
		if err != nil {
			return err
		}

		applied, err := item.Approve(cmd.Qty)
		if err != nil {
			return err
		}

		if item.FulfillmentMethod == domain.MethodFromStock {
			reason := fmt.Sprintf("reserved for order %s", order.Number)
			if _, err := h.ledger.Reserve(uow, item.ItemID, applied, cmd.Actor, reason); err != nil {
				return err
			}
			if item.FulfillmentStatus.CanTransition(domain.StatusReserved) && item.FulfillmentStatus == domain.StatusPending {
				item.FulfillmentStatus = domain.StatusReserved
			}
		}

		// Trading goods came in through a purchase order and sit on the
		// ready shelf once authorized; only the shipping leg remains.
		if item.FulfillmentMethod == domain.MethodTrading && item.FulfillmentStatus.CanTransition(domain.StatusDone) {
			item.FulfillmentStatus = domain.StatusDone
		}

		if err := uow.Orders().SaveItem(item); err != nil {
			return err
		}
		status, err := recomputeOrderStatus(uow, item.OrderID)
		if err != nil {
			return err
		}
		result = ApproveOrderItemResult{
			AppliedQty:  applied,
			ApprovedQty: item.ApprovedQty,
			ReadyQty:    item.ReadyQty,
			OrderStatus: status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
