package repository

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "time"

    "github.com/aws/aws-sdk-go-v2/aws"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
    "github.com/cloud-wave-best-zizon/order-pipeline/internal/order/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
    client          *dynamodb.Client
    orderTableName  string
    outboxTableName string
}

func NewOrderRepository(client *dynamodb.Client, orderTableName, outboxTableName string) *OrderRepository {
    return &OrderRepository{
        client:          client,
        orderTableName:  orderTableName,
        outboxTableName: outboxTableName,
    }
}

// CreateOrderWithOutbox persists the order and its outbox row in a single
// transaction. The event therefore survives a crash between persist and
// publish; the relay picks it up later.
func (r *OrderRepository) CreateOrderWithOutbox(ctx context.Context, order *domain.Order, record *domain.OutboxRecord) error {
    orderItem, err := attributevalue.MarshalMap(order)
    if err != nil {
        return fmt.Errorf("failed to marshal order: %w", err)
    }

    outboxItem, err := attributevalue.MarshalMap(record)
    if err != nil {
        return fmt.Errorf("failed to marshal outbox record: %w", err)
    }

    _, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
        TransactItems: []types.TransactWriteItem{
            {
                Put: &types.Put{
                    TableName:           aws.String(r.orderTableName),
                    Item:                orderItem,
                    ConditionExpression: aws.String("attribute_not_exists(order_id)"),
                },
            },
            {
                Put: &types.Put{
                    TableName: aws.String(r.outboxTableName),
                    Item:      outboxItem,
                },
            },
        },
    })
    if err != nil {
        return fmt.Errorf("failed to write order transaction: %w", err)
    }

    return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
    result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
        TableName: aws.String(r.orderTableName),
        Key: map[string]types.AttributeValue{
            "order_id": &types.AttributeValueMemberS{Value: orderID},
        },
    })
    if err != nil {
        return nil, fmt.Errorf("failed to get item: %w", err)
    }

    if result.Item == nil {
        return nil, ErrOrderNotFound
    }

    var order domain.Order
    if err := attributevalue.UnmarshalMap(result.Item, &order); err != nil {
        return nil, fmt.Errorf("failed to unmarshal order: %w", err)
    }

    return &order, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
    result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
        TableName: aws.String(r.orderTableName),
    })
    if err != nil {
        return nil, fmt.Errorf("failed to scan orders: %w", err)
    }

    orders := make([]domain.Order, 0, len(result.Items))
    for _, item := range result.Items {
        var order domain.Order
        if err := attributevalue.UnmarshalMap(item, &order); err != nil {
            return nil, fmt.Errorf("failed to unmarshal order: %w", err)
        }
        orders = append(orders, order)
    }

    sort.Slice(orders, func(i, j int) bool {
        return orders[i].CreatedAt.After(orders[j].CreatedAt)
    })

    return orders, nil
}

// ListPendingOutbox returns unsent outbox rows, oldest first.
func (r *OrderRepository) ListPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
    filter := expression.Equal(
        expression.Name("status"),
        expression.Value(domain.OutboxStatusPending),
    )

    expr, err := expression.NewBuilder().WithFilter(filter).Build()
    if err != nil {
        return nil, err
    }

    result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
        TableName:                 aws.String(r.outboxTableName),
        FilterExpression:          expr.Filter(),
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
    })
    if err != nil {
        return nil, fmt.Errorf("failed to scan outbox: %w", err)
    }

    records := make([]domain.OutboxRecord, 0, len(result.Items))
    for _, item := range result.Items {
        var record domain.OutboxRecord
        if err := attributevalue.UnmarshalMap(item, &record); err != nil {
            return nil, fmt.Errorf("failed to unmarshal outbox record: %w", err)
        }
        records = append(records, record)
    }

    sort.Slice(records, func(i, j int) bool {
        return records[i].CreatedAt.Before(records[j].CreatedAt)
    })

    if limit > 0 && len(records) > limit {
        records = records[:limit]
    }

    return records, nil
}

// MarkOutboxSent flips a pending row to sent. A row already marked sent is
// left alone, so a relay racing a duplicate sweep stays harmless.
func (r *OrderRepository) MarkOutboxSent(ctx context.Context, eventID string) error {
    update := expression.Set(
        expression.Name("status"),
        expression.Value(domain.OutboxStatusSent),
    ).Set(
        expression.Name("sent_at"),
        expression.Value(time.Now()),
    )

    condition := expression.Equal(
        expression.Name("status"),
        expression.Value(domain.OutboxStatusPending),
    )

    expr, err := expression.NewBuilder().
        WithUpdate(update).
        WithCondition(condition).
        Build()
    if err != nil {
        return err
    }

    _, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
        TableName: aws.String(r.outboxTableName),
        Key: map[string]types.AttributeValue{
            "event_id": &types.AttributeValueMemberS{Value: eventID},
        },
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        UpdateExpression:          expr.Update(),
        ConditionExpression:       expr.Condition(),
    })
    if err != nil {
        var ccf *types.ConditionalCheckFailedException
        if errors.As(err, &ccf) {
            return nil
        }
        return fmt.Errorf("failed to mark outbox record sent: %w", err)
    }

    return nil
}
