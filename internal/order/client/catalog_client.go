package client

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/cloud-wave-best-zizon/order-pipeline/internal/order/domain"
    "go.uber.org/zap"
)

// ErrUnavailable means the catalog could not be consulted; callers must treat
// it as "cannot verify, reject".
var ErrUnavailable = errors.New("catalog unavailable")

// CatalogClient reads availability and price from the catalog collaborator at
// order-admission time. The two reads are not atomic with each other nor with
// the eventual ledger decrement.
type CatalogClient struct {
    baseURL    string
    httpClient *http.Client
    logger     *zap.Logger
}

func NewCatalogClient(baseURL string, logger *zap.Logger) *CatalogClient {
    return &CatalogClient{
        baseURL: baseURL,
        httpClient: &http.Client{
            Timeout: 5 * time.Second,
        },
        logger: logger,
    }
}

type stockResponse struct {
    ProductID string `json:"productId"`
    Stock     int    `json:"stock"`
    Available bool   `json:"available"`
}

type productResponse struct {
    Price float64 `json:"price"`
}

// CheckAvailability returns a stale snapshot of stock and price, or
// ErrUnavailable on any transport failure or non-success status.
func (c *CatalogClient) CheckAvailability(ctx context.Context, productID string) (*domain.StockInfo, error) {
    var stock stockResponse
    url := fmt.Sprintf("%s/internal/products/%s/stock", c.baseURL, productID)
    if err := c.getJSON(ctx, url, &stock); err != nil {
        c.logger.Warn("Stock check against catalog failed",
            zap.String("product_id", productID),
            zap.Error(err))
        return nil, ErrUnavailable
    }

    // 가격은 별도 조회
    var product productResponse
    url = fmt.Sprintf("%s/products/%s", c.baseURL, productID)
    if err := c.getJSON(ctx, url, &product); err != nil {
        c.logger.Warn("Price lookup against catalog failed",
            zap.String("product_id", productID),
            zap.Error(err))
        return nil, ErrUnavailable
    }

    return &domain.StockInfo{
        ProductID: stock.ProductID,
        Stock:     stock.Stock,
        Available: stock.Available,
        Price:     product.Price,
    }, nil
}

func (c *CatalogClient) getJSON(ctx context.Context, url string, out interface{}) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return err
    }

    resp, err := c.httpClient.Do(req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return fmt.Errorf("catalog returned status %d", resp.StatusCode)
    }

    return json.NewDecoder(resp.Body).Decode(out)
}
