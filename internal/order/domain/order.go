package domain

import (
    "time"
)

const StatusCreated = "Created"

type Order struct {
    OrderID    string    `dynamodbav:"order_id"    json:"order_id"`
    ProductID  string    `dynamodbav:"product_id"  json:"product_id"`
    Quantity   int       `dynamodbav:"quantity"    json:"quantity"`
    TotalPrice float64   `dynamodbav:"total_price" json:"total_price"`
    Status     string    `dynamodbav:"status"      json:"status"`
    CreatedAt  time.Time `dynamodbav:"created_at"  json:"created_at"`
}

type CreateOrderRequest struct {
    ProductID string `json:"product_id" binding:"required"`
    Quantity  int    `json:"quantity"   binding:"required,min=1"`
}

// StockInfo is the catalog snapshot taken at admission time. It is advisory
// only; the ledger may have moved by the time the order is reconciled.
type StockInfo struct {
    ProductID string  `json:"product_id"`
    Stock     int     `json:"stock"`
    Available bool    `json:"available"`
    Price     float64 `json:"price"`
}

// Outbox row states
const (
    OutboxStatusPending = "pending"
    OutboxStatusSent    = "sent"
)

// OutboxRecord is written in the same transaction as its Order so that the
// event cannot be lost between persist and publish.
type OutboxRecord struct {
    EventID      string    `dynamodbav:"event_id"`
    Topic        string    `dynamodbav:"topic"`
    PartitionKey string    `dynamodbav:"partition_key"`
    Payload      []byte    `dynamodbav:"payload"`
    Status       string    `dynamodbav:"status"`
    CreatedAt    time.Time `dynamodbav:"created_at"`
    SentAt       time.Time `dynamodbav:"sent_at,omitempty"`
}
