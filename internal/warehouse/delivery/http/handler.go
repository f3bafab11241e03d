package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
	"github.com/gudangkita/warehouse-service/internal/warehouse/usecase/command"
	"github.com/gudangkita/warehouse-service/internal/warehouse/usecase/query"
	"github.com/gudangkita/warehouse-service/kafka"
	"github.com/gudangkita/warehouse-service/pkg/logger"
)

// WarehouseHandler handles HTTP requests for the warehouse service
type WarehouseHandler struct {
	// Command handlers
	adjustStockHandler    *command.AdjustStockHandler
	approveItemHandler    *command.ApproveOrderItemHandler
	approveProdHandler    *command.ApproveProductionHandler
	completeProdHandler   *command.CompleteProductionHandler
	dispatchHandler       *command.DispatchShipmentHandler
	confirmArrivalHandler *command.ConfirmArrivalHandler
	returnLineHandler     *command.ReturnShipmentLineHandler

	// Query handlers
	getOrderHandler      *query.GetOrderHandler
	getShipmentHandler   *query.GetShipmentHandler
	listShipmentsHandler *query.ListShipmentsHandler
	stockCardHandler     *query.StockCardHandler
	listWasteHandler     *query.ListWasteHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	wasteEntries   prometheus.Counter
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(uowf domain.UnitOfWorkFactory, events *kafka.Publisher) *WarehouseHandler {
	ledger := domain.NewStockLedger()

	// Initialize Prometheus metrics
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_service_requests_total",
			Help: "Total number of requests to warehouse service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_service_request_duration_seconds",
			Help:    "Duration of warehouse service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	wasteEntries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warehouse_service_waste_entries_total",
			Help: "Total number of waste stock entries recorded from recycled returns",
		},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(wasteEntries)

	return &WarehouseHandler{
		adjustStockHandler:    command.NewAdjustStockHandler(uowf, ledger, events),
		approveItemHandler:    command.NewApproveOrderItemHandler(uowf, ledger),
		approveProdHandler:    command.NewApproveProductionHandler(uowf, ledger, events),
		completeProdHandler:   command.NewCompleteProductionHandler(uowf, ledger),
		dispatchHandler:       command.NewDispatchShipmentHandler(uowf, events),
		confirmArrivalHandler: command.NewConfirmArrivalHandler(uowf, ledger, events),
		returnLineHandler:     command.NewReturnShipmentLineHandler(uowf, ledger, events),
		getOrderHandler:       query.NewGetOrderHandler(uowf),
		getShipmentHandler:    query.NewGetShipmentHandler(uowf),
		listShipmentsHandler:  query.NewListShipmentsHandler(uowf),
		stockCardHandler:      query.NewStockCardHandler(uowf),
		listWasteHandler:      query.NewListWasteHandler(uowf),
		requestCounter:        requestCounter,
		requestLatency:        requestLatency,
		wasteEntries:          wasteEntries,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *WarehouseHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var stockErr *domain.StockError
	var stateErr *domain.InvalidStateError
	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &stockErr), errors.As(err, &stateErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *WarehouseHandler) respondDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Logger.Error().Err(err).Msg("Request failed")
		respondJSON(w, status, Response{Success: false, Error: "Internal server error"})
		return
	}
	respondJSON(w, status, Response{Success: false, Error: err.Error()})
}

func pathID(r *http.Request, key string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[key], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// AdjustStock handles POST /api/items/{id}/adjustments
func (h *WarehouseHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid item ID"})
		return
	}

	var req struct {
		Qty         float64          `json:"qty"`
		Direction   string           `json:"direction"`
		Source      string           `json:"source"`
		Reason      string           `json:"reason"`
		UnitPrice   *decimal.Decimal `json:"unit_price"`
		OrderNumber string           `json:"order_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	mutation, err := h.adjustStockHandler.Handle(r.Context(), command.AdjustStockCommand{
		ItemID:      itemID,
		Qty:         req.Qty,
		Direction:   domain.Direction(req.Direction),
		Source:      domain.TransactionSource(req.Source),
		Reason:      req.Reason,
		UnitPrice:   req.UnitPrice,
		OrderNumber: req.OrderNumber,
		Actor:       actorFrom(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock adjusted successfully",
		Data:    mutation,
	})
}

// ApproveOrderItem handles POST /api/order-items/{id}/approve
func (h *WarehouseHandler) ApproveOrderItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid order item ID"})
		return
	}

	var req struct {
		Qty float64 `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	result, err := h.approveItemHandler.Handle(r.Context(), command.ApproveOrderItemCommand{
		OrderItemID: itemID,
		Qty:         req.Qty,
		Actor:       actorFrom(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Order item approved",
		Data:    result,
	})
}

// ApproveProduction handles POST /api/production-requests/{id}/approve
func (h *WarehouseHandler) ApproveProduction(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid production request ID"})
		return
	}

	transactions, err := h.approveProdHandler.Handle(r.Context(), command.ApproveProductionCommand{
		RequestID: requestID,
		Actor:     actorFrom(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Production request approved",
		Data:    transactions,
	})
}

// CompleteProduction handles POST /api/order-items/{id}/production
func (h *WarehouseHandler) CompleteProduction(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid order item ID"})
		return
	}

	var req struct {
		Qty float64 `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	item, err := h.completeProdHandler.Handle(r.Context(), command.CompleteProductionCommand{
		OrderItemID: itemID,
		Qty:         req.Qty,
		Actor:       actorFrom(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Production output recorded",
		Data:    item,
	})
}

// DispatchShipment handles POST /api/shipments
func (h *WarehouseHandler) DispatchShipment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderIDs         []uint     `json:"order_ids"`
		DriverName       string     `json:"driver_name"`
		VehiclePlate     string     `json:"vehicle_plate"`
		EstimatedArrival *time.Time `json:"estimated_arrival"`
		Notes            string     `json:"notes"`
		Lines            []struct {
			OrderItemID uint    `json:"order_item_id"`
			Qty         float64 `json:"qty"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	lines := make([]command.DispatchLine, 0, len(req.Lines))
	for _, ln := range req.Lines {
		lines = append(lines, command.DispatchLine{OrderItemID: ln.OrderItemID, Qty: ln.Qty})
	}

	shipment, err := h.dispatchHandler.Handle(r.Context(), command.DispatchShipmentCommand{
		OrderIDs:         req.OrderIDs,
		DriverName:       req.DriverName,
		VehiclePlate:     req.VehiclePlate,
		EstimatedArrival: req.EstimatedArrival,
		Notes:            req.Notes,
		Lines:            lines,
		Actor:            actorFrom(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Shipment dispatched",
		Data:    shipment,
	})
}

// ConfirmArrival handles POST /api/shipments/{id}/arrival
func (h *WarehouseHandler) ConfirmArrival(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid shipment ID"})
		return
	}

	var req struct {
		ReceiverName string     `json:"receiver_name"`
		ArrivedAt    *time.Time `json:"arrived_at"`
		Notes        string     `json:"notes"`
		PhotoURL     string     `json:"photo_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	shipment, err := h.confirmArrivalHandler.Handle(r.Context(), command.ConfirmArrivalCommand{
		ShipmentID:   shipmentID,
		ReceiverName: req.ReceiverName,
		ArrivedAt:    req.ArrivedAt,
		Notes:        req.Notes,
		PhotoURL:     req.PhotoURL,
		Actor:        actorFrom(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Arrival confirmed",
		Data:    shipment,
	})
}

// ReturnShipmentLine handles POST /api/shipment-lines/{id}/returns
func (h *WarehouseHandler) ReturnShipmentLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid shipment line ID"})
		return
	}

	var req struct {
		Qty    float64 `json:"qty"`
		Reason string  `json:"reason"`
		Notes  string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	ret, err := h.returnLineHandler.Handle(r.Context(), command.ReturnShipmentLineCommand{
		ShipmentLineID: lineID,
		Qty:            req.Qty,
		Reason:         domain.ReturnReason(req.Reason),
		Notes:          req.Notes,
		Actor:          actorFrom(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	if ret.Reason == domain.ReturnRecycle {
		h.wasteEntries.Inc()
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Shipment line returned",
		Data:    ret,
	})
}

// GetOrder handles GET /api/orders/{id}
func (h *WarehouseHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid order ID"})
		return
	}

	view, err := h.getOrderHandler.Handle(query.GetOrderQuery{ID: orderID})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: view})
}

// GetShipment handles GET /api/shipments/{id}
func (h *WarehouseHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid shipment ID"})
		return
	}

	shipment, err := h.getShipmentHandler.Handle(query.GetShipmentQuery{ID: shipmentID})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: shipment})
}

// ListShipments handles GET /api/shipments
func (h *WarehouseHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	shipments, err := h.listShipmentsHandler.Handle(query.ListShipmentsQuery{Limit: limit, Offset: offset})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: shipments})
}

// StockCard handles GET /api/items/{id}/stock-card
func (h *WarehouseHandler) StockCard(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid item ID"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	card, err := h.stockCardHandler.Handle(query.StockCardQuery{ItemID: itemID, Limit: limit, Offset: offset})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: card})
}

// ListWaste handles GET /api/waste
func (h *WarehouseHandler) ListWaste(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.listWasteHandler.Handle(query.ListWasteQuery{Limit: limit, Offset: offset})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: entries})
}

// RegisterRoutes registers all warehouse routes
func (h *WarehouseHandler) RegisterRoutes(router *mux.Router) {
	// Mutations require a warehouse-capable role
	router.HandleFunc("/api/items/{id}/adjustments",
		h.metricsMiddleware("/api/items/{id}/adjustments", MutationMiddleware(h.AdjustStock))).Methods("POST")
	router.HandleFunc("/api/order-items/{id}/approve",
		h.metricsMiddleware("/api/order-items/{id}/approve", MutationMiddleware(h.ApproveOrderItem))).Methods("POST")
	router.HandleFunc("/api/order-items/{id}/production",
		h.metricsMiddleware("/api/order-items/{id}/production", MutationMiddleware(h.CompleteProduction))).Methods("POST")
	router.HandleFunc("/api/production-requests/{id}/approve",
		h.metricsMiddleware("/api/production-requests/{id}/approve", MutationMiddleware(h.ApproveProduction))).Methods("POST")
	router.HandleFunc("/api/shipments",
		h.metricsMiddleware("/api/shipments", MutationMiddleware(h.DispatchShipment))).Methods("POST")
	router.HandleFunc("/api/shipments/{id}/arrival",
		h.metricsMiddleware("/api/shipments/{id}/arrival", MutationMiddleware(h.ConfirmArrival))).Methods("POST")
	router.HandleFunc("/api/shipment-lines/{id}/returns",
		h.metricsMiddleware("/api/shipment-lines/{id}/returns", MutationMiddleware(h.ReturnShipmentLine))).Methods("POST")

	// Read side
	router.HandleFunc("/api/orders/{id}",
		h.metricsMiddleware("/api/orders/{id}", AuthMiddleware(h.GetOrder))).Methods("GET")
	router.HandleFunc("/api/shipments",
		h.metricsMiddleware("/api/shipments", AuthMiddleware(h.ListShipments))).Methods("GET")
	router.HandleFunc("/api/shipments/{id}",
		h.metricsMiddleware("/api/shipments/{id}", AuthMiddleware(h.GetShipment))).Methods("GET")
	router.HandleFunc("/api/items/{id}/stock-card",
		h.metricsMiddleware("/api/items/{id}/stock-card", AuthMiddleware(h.StockCard))).Methods("GET")
	router.HandleFunc("/api/waste",
		h.metricsMiddleware("/api/waste", AuthMiddleware(h.ListWaste))).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *WarehouseHandler) RegisterHealthCheck(router *mux.Router, db *gorm.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Warehouse service is healthy",
		})
	}).Methods("GET")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
