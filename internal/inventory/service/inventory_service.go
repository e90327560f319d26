package service

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "strings"

    "github.com/cloud-wave-best-zizon/order-pipeline/internal/events"
    "github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/domain"
    "github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/repository"
    "github.com/cloud-wave-best-zizon/order-pipeline/pkg/metrics"
    "go.uber.org/zap"
)

var (
    ErrStockNotFound     = errors.New("stock record not found")
    ErrInsufficientStock = errors.New("insufficient stock")
)

// StockStore is the ledger contract: one atomic conditional decrement, no
// read-then-write window.
type StockStore interface {
    GetStock(ctx context.Context, productID string) (*domain.StockRecord, error)
    ListStock(ctx context.Context) ([]domain.StockRecord, error)
    Seed(ctx context.Context, productID string, initialStock int) error
    Decrement(ctx context.Context, orderID string, productID string, quantity int) error
}

// ReconcileResult carries the ledger state after reconciliation. Duplicate is
// set when the orderId had already been applied and the ledger was untouched.
type ReconcileResult struct {
    Record    *domain.StockRecord
    Duplicate bool
}

type InventoryService struct {
    stockStore StockStore
    logger     *zap.Logger
}

func NewInventoryService(stockStore StockStore, logger *zap.Logger) *InventoryService {
    return &InventoryService{
        stockStore: stockStore,
        logger:     logger,
    }
}

// Reconcile applies the conditional decrement for one OrderCreated event and
// re-reads the record for the StockUpdated publish. Redelivered events do not
// decrement twice; the current record is still returned so the publish can be
// retried after a crash between decrement and publish.
func (s *InventoryService) Reconcile(ctx context.Context, event events.OrderCreatedEvent) (*ReconcileResult, error) {
    err := s.stockStore.Decrement(ctx, event.OrderID, event.ProductID, event.Quantity)

    duplicate := false
    switch {
    case err == nil:
        metrics.DecrementsApplied.Inc()
    case errors.Is(err, repository.ErrDuplicateOrder):
        s.logger.Info("Order already reconciled, skipping decrement",
            zap.String("order_id", event.OrderID),
            zap.String("product_id", event.ProductID))
        metrics.DuplicateOrders.Inc()
        duplicate = true
    case errors.Is(err, repository.ErrInsufficientStock):
        metrics.DecrementsFailed.WithLabelValues(events.ReasonInsufficientStock).Inc()
        return nil, ErrInsufficientStock
    case errors.Is(err, repository.ErrStockNotFound):
        metrics.DecrementsFailed.WithLabelValues(events.ReasonStockNotFound).Inc()
        return nil, ErrStockNotFound
    default:
        return nil, err
    }

    record, err := s.stockStore.GetStock(ctx, event.ProductID)
    if err != nil {
        return nil, fmt.Errorf("failed to read back stock record: %w", err)
    }

    if !duplicate {
        s.logger.Info("Stock decremented successfully",
            zap.String("order_id", event.OrderID),
            zap.String("product_id", event.ProductID),
            zap.Int("deducted", event.Quantity),
            zap.Int("new_stock", record.Stock))
    }

    return &ReconcileResult{Record: record, Duplicate: duplicate}, nil
}

func (s *InventoryService) GetStock(ctx context.Context, productID string) (*domain.StockRecord, error) {
    record, err := s.stockStore.GetStock(ctx, productID)
    if err != nil {
        if errors.Is(err, repository.ErrStockNotFound) {
            return nil, ErrStockNotFound
        }
        return nil, err
    }
    return record, nil
}

func (s *InventoryService) ListStock(ctx context.Context) ([]domain.StockRecord, error) {
    return s.stockStore.ListStock(ctx)
}

// SeedFromSpec seeds initial stock from a "productId=stock,..." string. Each
// entry is idempotent, so running it on every start is safe.
func (s *InventoryService) SeedFromSpec(ctx context.Context, spec string) error {
    if strings.TrimSpace(spec) == "" {
        return nil
    }

    for _, entry := range strings.Split(spec, ",") {
        parts := strings.SplitN(strings.TrimSpace(entry), "=", 2)
        if len(parts) != 2 {
            return fmt.Errorf("invalid seed entry %q", entry)
        }

        stock, err := strconv.Atoi(parts[1])
        if err != nil || stock < 0 {
            return fmt.Errorf("invalid seed stock in %q", entry)
        }

        if err := s.stockStore.Seed(ctx, parts[0], stock); err != nil {
            return fmt.Errorf("failed to seed %q: %w", parts[0], err)
        }

        s.logger.Info("Seeded stock record",
            zap.String("product_id", parts[0]),
            zap.Int("initial_stock", stock))
    }

    return nil
}
