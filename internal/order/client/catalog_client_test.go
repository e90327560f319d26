package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func catalogServer(t *testing.T, stockStatus int, priceStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/internal/products/p1/stock", func(w http.ResponseWriter, _ *http.Request) {
		if stockStatus != http.StatusOK {
			w.WriteHeader(stockStatus)
			return
		}
		fmt.Fprint(w, `{"productId":"p1","stock":7,"available":true}`)
	})
	mux.HandleFunc("/products/p1", func(w http.ResponseWriter, _ *http.Request) {
		if priceStatus != http.StatusOK {
			w.WriteHeader(priceStatus)
			return
		}
		fmt.Fprint(w, `{"product_id":"p1","name":"widget","price":19.99,"stock":7}`)
	})
	return httptest.NewServer(mux)
}

func TestCheckAvailabilityReadsStockThenPrice(t *testing.T) {
	srv := catalogServer(t, http.StatusOK, http.StatusOK)
	defer srv.Close()

	c := NewCatalogClient(srv.URL, zap.NewNop())
	info, err := c.CheckAvailability(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ProductID != "p1" || info.Stock != 7 || !info.Available {
		t.Fatalf("unexpected snapshot: %+v", info)
	}
	if info.Price != 19.99 {
		t.Fatalf("expected price 19.99, got %v", info.Price)
	}
}

func TestCheckAvailabilityNonSuccessStatus(t *testing.T) {
	srv := catalogServer(t, http.StatusInternalServerError, http.StatusOK)
	defer srv.Close()

	c := NewCatalogClient(srv.URL, zap.NewNop())
	if _, err := c.CheckAvailability(context.Background(), "p1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCheckAvailabilityPriceLookupFailure(t *testing.T) {
	srv := catalogServer(t, http.StatusOK, http.StatusNotFound)
	defer srv.Close()

	c := NewCatalogClient(srv.URL, zap.NewNop())
	if _, err := c.CheckAvailability(context.Background(), "p1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCheckAvailabilityTransportFailure(t *testing.T) {
	srv := catalogServer(t, http.StatusOK, http.StatusOK)
	srv.Close()

	c := NewCatalogClient(srv.URL, zap.NewNop())
	if _, err := c.CheckAvailability(context.Background(), "p1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
