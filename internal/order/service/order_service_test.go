package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloud-wave-best-zizon/order-pipeline/internal/events"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/order/client"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/order/domain"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/order/repository"
	"go.uber.org/zap"
)

type fakeOracle struct {
	info *domain.StockInfo
	err  error
}

func (f *fakeOracle) CheckAvailability(_ context.Context, _ string) (*domain.StockInfo, error) {
	return f.info, f.err
}

type fakeOrderStore struct {
	orders  map[string]*domain.Order
	outbox  []*domain.OutboxRecord
	saveErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrderStore) CreateOrderWithOutbox(_ context.Context, order *domain.Order, record *domain.OutboxRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.orders[order.OrderID] = order
	f.outbox = append(f.outbox, record)
	return nil
}

func (f *fakeOrderStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(f.orders))
	for _, order := range f.orders {
		out = append(out, *order)
	}
	return out, nil
}

func availableOracle(stock int, price float64) *fakeOracle {
	return &fakeOracle{info: &domain.StockInfo{
		ProductID: "p1", Stock: stock, Available: true, Price: price,
	}}
}

func TestCreateOrderPersistsOrderAndOutboxRow(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, availableOracle(10, 2.5), zap.NewNop())

	order, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		ProductID: "p1", Quantity: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.OrderID == "" {
		t.Fatalf("order id not assigned")
	}
	if order.TotalPrice != 10.0 {
		t.Fatalf("expected total price 10.0, got %v", order.TotalPrice)
	}
	if order.Status != domain.StatusCreated {
		t.Fatalf("expected status %q, got %q", domain.StatusCreated, order.Status)
	}

	if len(store.outbox) != 1 {
		t.Fatalf("expected one outbox record, got %d", len(store.outbox))
	}
	record := store.outbox[0]
	if record.Topic != events.TopicOrderCreated {
		t.Fatalf("outbox topic %q", record.Topic)
	}
	if record.PartitionKey != order.OrderID {
		t.Fatalf("OrderCreated must be partitioned by orderId")
	}
	if record.Status != domain.OutboxStatusPending {
		t.Fatalf("outbox record not pending: %q", record.Status)
	}
}

// The event payload field names are the wire contract; other consumers depend
// on them verbatim.
func TestCreateOrderEventPayloadFieldNames(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, availableOracle(10, 1), zap.NewNop())

	order, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		ProductID: "p1", Quantity: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(store.outbox[0].Payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["orderId"] != order.OrderID {
		t.Fatalf("payload orderId = %v", decoded["orderId"])
	}
	if decoded["productId"] != "p1" {
		t.Fatalf("payload productId = %v", decoded["productId"])
	}
	if decoded["quantity"].(float64) != 3 {
		t.Fatalf("payload quantity = %v", decoded["quantity"])
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore(), availableOracle(10, 1), zap.NewNop())

	cases := []domain.CreateOrderRequest{
		{ProductID: "", Quantity: 1},
		{ProductID: "p1", Quantity: 0},
		{ProductID: "p1", Quantity: -2},
	}
	for _, req := range cases {
		if _, err := svc.CreateOrder(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest for %+v, got %v", req, err)
		}
	}
}

func TestCreateOrderRejectsWhenOracleUnavailable(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, &fakeOracle{err: client.ErrUnavailable}, zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		ProductID: "p1", Quantity: 1,
	})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatalf("order persisted despite oracle failure")
	}
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	cases := []struct {
		name   string
		oracle *fakeOracle
	}{
		{"unavailable flag", &fakeOracle{info: &domain.StockInfo{Stock: 10, Available: false, Price: 1}}},
		{"stock below quantity", &fakeOracle{info: &domain.StockInfo{Stock: 2, Available: true, Price: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeOrderStore()
			svc := NewOrderService(store, tc.oracle, zap.NewNop())
			_, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
				ProductID: "p1", Quantity: 5,
			})
			if !errors.Is(err, ErrInsufficientStock) {
				t.Fatalf("expected ErrInsufficientStock, got %v", err)
			}
			if len(store.orders) != 0 || len(store.outbox) != 0 {
				t.Fatalf("rejected order left side effects")
			}
		})
	}
}

func TestGetOrderNotFound(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore(), availableOracle(10, 1), zap.NewNop())

	if _, err := svc.GetOrder(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
