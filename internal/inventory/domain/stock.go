package domain

import (
    "time"
)

// StockRecord holds stock >= 0 at all times; only the reconciler mutates it,
// through the conditional decrement.
type StockRecord struct {
    ProductID string    `dynamodbav:"product_id" json:"product_id"`
    Stock     int       `dynamodbav:"stock"      json:"stock"`
    UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// ProcessedOrder is the dedup record keyed by orderId. Its conditional put in
// the decrement transaction makes redelivery a no-op.
type ProcessedOrder struct {
    OrderID     string    `dynamodbav:"order_id"`
    ProductID   string    `dynamodbav:"product_id"`
    Quantity    int       `dynamodbav:"quantity"`
    ProcessedAt time.Time `dynamodbav:"processed_at"`
}
