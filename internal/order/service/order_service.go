package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/cloud-wave-best-zizon/order-pipeline/internal/events"
    "github.com/cloud-wave-best-zizon/order-pipeline/internal/order/client"
    "github.com/cloud-wave-best-zizon/order-pipeline/internal/order/domain"
    "github.com/cloud-wave-best-zizon/order-pipeline/internal/order/repository"
    "github.com/cloud-wave-best-zizon/order-pipeline/pkg/metrics"
    "github.com/google/uuid"
    "go.uber.org/zap"
)

var (
    ErrOrderNotFound       = errors.New("order not found")
    ErrInsufficientStock   = errors.New("insufficient stock available")
    ErrUpstreamUnavailable = errors.New("catalog service unavailable")
    ErrInvalidRequest      = errors.New("invalid order request")
)

// StockOracle is the synchronous availability read taken at admission time.
type StockOracle interface {
    CheckAvailability(ctx context.Context, productID string) (*domain.StockInfo, error)
}

// OrderStore persists orders together with their outbox rows.
type OrderStore interface {
    CreateOrderWithOutbox(ctx context.Context, order *domain.Order, record *domain.OutboxRecord) error
    GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
    ListOrders(ctx context.Context) ([]domain.Order, error)
}

type OrderService struct {
    orderStore OrderStore
    oracle     StockOracle
    logger     *zap.Logger
}

func NewOrderService(orderStore OrderStore, oracle StockOracle, logger *zap.Logger) *OrderService {
    return &OrderService{
        orderStore: orderStore,
        oracle:     oracle,
        logger:     logger,
    }
}

// CreateOrder admits an order. The availability check is advisory only; it
// does not reserve stock, the reconciler settles the ledger later.
func (s *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
    if req.ProductID == "" || req.Quantity <= 0 {
        metrics.OrdersRejected.WithLabelValues("validation").Inc()
        return nil, ErrInvalidRequest
    }

    info, err := s.oracle.CheckAvailability(ctx, req.ProductID)
    if err != nil {
        if errors.Is(err, client.ErrUnavailable) {
            metrics.OrdersRejected.WithLabelValues("upstream_unavailable").Inc()
            return nil, ErrUpstreamUnavailable
        }
        return nil, err
    }

    if !info.Available || info.Stock < req.Quantity {
        s.logger.Info("Order rejected on admission check",
            zap.String("product_id", req.ProductID),
            zap.Int("requested", req.Quantity),
            zap.Int("stock", info.Stock),
            zap.Bool("available", info.Available))
        metrics.OrdersRejected.WithLabelValues("insufficient_stock").Inc()
        return nil, ErrInsufficientStock
    }

    order := &domain.Order{
        OrderID:    uuid.New().String(),
        ProductID:  req.ProductID,
        Quantity:   req.Quantity,
        TotalPrice: info.Price * float64(req.Quantity),
        Status:     domain.StatusCreated,
        CreatedAt:  time.Now(),
    }

    event := events.OrderCreatedEvent{
        OrderID:   order.OrderID,
        ProductID: order.ProductID,
        Quantity:  order.Quantity,
    }

    payload, err := json.Marshal(event)
    if err != nil {
        return nil, fmt.Errorf("failed to marshal order created event: %w", err)
    }

    record := &domain.OutboxRecord{
        EventID:      uuid.New().String(),
        Topic:        events.TopicOrderCreated,
        PartitionKey: order.OrderID,
        Payload:      payload,
        Status:       domain.OutboxStatusPending,
        CreatedAt:    order.CreatedAt,
    }

    if err := s.orderStore.CreateOrderWithOutbox(ctx, order, record); err != nil {
        s.logger.Error("Failed to persist order",
            zap.String("order_id", order.OrderID),
            zap.Error(err))
        return nil, err
    }

    s.logger.Info("Order created successfully",
        zap.String("order_id", order.OrderID),
        zap.String("product_id", order.ProductID),
        zap.Int("quantity", order.Quantity),
        zap.Float64("total_price", order.TotalPrice))
    metrics.OrdersCreated.Inc()

    return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
    order, err := s.orderStore.GetOrder(ctx, orderID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
    return s.orderStore.ListOrders(ctx)
}
