package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/domain"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/repository"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubStockStore struct {
	records map[string]*domain.StockRecord
}

func (s *stubStockStore) GetStock(_ context.Context, productID string) (*domain.StockRecord, error) {
	record, ok := s.records[productID]
	if !ok {
		return nil, repository.ErrStockNotFound
	}
	return record, nil
}

func (s *stubStockStore) ListStock(_ context.Context) ([]domain.StockRecord, error) {
	out := make([]domain.StockRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *stubStockStore) Seed(_ context.Context, _ string, _ int) error { return nil }

func (s *stubStockStore) Decrement(_ context.Context, _, _ string, _ int) error { return nil }

func newTestRouter(records map[string]*domain.StockRecord) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewInventoryService(&stubStockStore{records: records}, zap.NewNop())
	h := NewInventoryHandler(svc, zap.NewNop())

	router := gin.New()
	router.GET("/inventory/:productId", h.GetStock)
	router.GET("/inventory", h.ListStock)
	return router
}

func TestGetStockReturnsRecord(t *testing.T) {
	router := newTestRouter(map[string]*domain.StockRecord{
		"p1": {ProductID: "p1", Stock: 7, UpdatedAt: time.Now()},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/inventory/p1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var record domain.StockRecord
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", record.Stock)
	}
}

func TestGetStockNotFoundReturns404(t *testing.T) {
	router := newTestRouter(map[string]*domain.StockRecord{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/inventory/ghost", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListStock(t *testing.T) {
	router := newTestRouter(map[string]*domain.StockRecord{
		"p1": {ProductID: "p1", Stock: 7},
		"p2": {ProductID: "p2", Stock: 3},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var records []domain.StockRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
