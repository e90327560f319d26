package events

import (
    "time"
)

// Kafka topics. order.created is partitioned by orderId, stock.updated by
// productId. order.created.dlt receives undecodable order.created payloads.
const (
    TopicOrderCreated     = "order.created"
    TopicStockUpdated     = "stock.updated"
    TopicOrderUnfulfilled = "order.unfulfilled"
    TopicOrderDeadLetter  = "order.created.dlt"
)

// order-service에서 발행하는 이벤트
type OrderCreatedEvent struct {
    OrderID   string `json:"orderId"`
    ProductID string `json:"productId"`
    Quantity  int    `json:"quantity"`
}

// 재고 차감 완료 이벤트
type StockUpdatedEvent struct {
    ProductID string    `json:"productId"`
    NewStock  int       `json:"newStock"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// 재고 차감 실패 보상 이벤트
type StockDeductionFailedEvent struct {
    OrderID   string `json:"orderId"`
    ProductID string `json:"productId"`
    Quantity  int    `json:"quantity"`
    Reason    string `json:"reason"`
}

const (
    ReasonInsufficientStock = "stock_insufficient"
    ReasonStockNotFound     = "stock_not_found"
)
