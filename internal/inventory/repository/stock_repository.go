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
    "github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/domain"
)

var (
    ErrStockNotFound     = errors.New("stock record not found")
    ErrInsufficientStock = errors.New("insufficient stock")
    ErrDuplicateOrder    = errors.New("order already processed")
)

const conditionalCheckFailed = "ConditionalCheckFailed"

type StockRepository struct {
    client             *dynamodb.Client
    stockTableName     string
    processedTableName string
}

func NewStockRepository(client *dynamodb.Client, stockTableName, processedTableName string) *StockRepository {
    return &StockRepository{
        client:             client,
        stockTableName:     stockTableName,
        processedTableName: processedTableName,
    }
}

func (r *StockRepository) GetStock(ctx context.Context, productID string) (*domain.StockRecord, error) {
    result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
        TableName: aws.String(r.stockTableName),
        Key: map[string]types.AttributeValue{
            "product_id": &types.AttributeValueMemberS{Value: productID},
        },
    })
    if err != nil {
        return nil, fmt.Errorf("failed to get item: %w", err)
    }

    if result.Item == nil {
        return nil, ErrStockNotFound
    }

    var record domain.StockRecord
    if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
        return nil, fmt.Errorf("failed to unmarshal stock record: %w", err)
    }

    return &record, nil
}

func (r *StockRepository) ListStock(ctx context.Context) ([]domain.StockRecord, error) {
    result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
        TableName: aws.String(r.stockTableName),
    })
    if err != nil {
        return nil, fmt.Errorf("failed to scan stock records: %w", err)
    }

    records := make([]domain.StockRecord, 0, len(result.Items))
    for _, item := range result.Items {
        var record domain.StockRecord
        if err := attributevalue.UnmarshalMap(item, &record); err != nil {
            return nil, fmt.Errorf("failed to unmarshal stock record: %w", err)
        }
        records = append(records, record)
    }

    sort.Slice(records, func(i, j int) bool {
        return records[i].ProductID < records[j].ProductID
    })

    return records, nil
}

// Seed creates the stock record if absent. Seeding an existing product is a
// no-op, so bootstrap can run on every start.
func (r *StockRepository) Seed(ctx context.Context, productID string, initialStock int) error {
    record := domain.StockRecord{
        ProductID: productID,
        Stock:     initialStock,
        UpdatedAt: time.Now(),
    }

    item, err := attributevalue.MarshalMap(record)
    if err != nil {
        return fmt.Errorf("failed to marshal stock record: %w", err)
    }

    _, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
        TableName:           aws.String(r.stockTableName),
        Item:                item,
        ConditionExpression: aws.String("attribute_not_exists(product_id)"),
    })
    if err != nil {
        var ccf *types.ConditionalCheckFailedException
        if errors.As(err, &ccf) {
            return nil
        }
        return fmt.Errorf("failed to seed stock: %w", err)
    }

    return nil
}

// Decrement applies the compare-and-decrement and records the orderId dedup
// row in one transaction. It never creates a missing stock record and never
// drives stock negative. Outcomes: nil, ErrDuplicateOrder,
// ErrInsufficientStock, ErrStockNotFound.
func (r *StockRepository) Decrement(ctx context.Context, orderID string, productID string, quantity int) error {
    processed := domain.ProcessedOrder{
        OrderID:     orderID,
        ProductID:   productID,
        Quantity:    quantity,
        ProcessedAt: time.Now(),
    }

    processedItem, err := attributevalue.MarshalMap(processed)
    if err != nil {
        return fmt.Errorf("failed to marshal processed order: %w", err)
    }

    update := expression.Set(
        expression.Name("stock"),
        expression.Minus(
            expression.Name("stock"),
            expression.Value(quantity),
        ),
    ).Set(
        expression.Name("updated_at"),
        expression.Value(time.Now()),
    )

    // 재고가 충분한 경우에만 업데이트, 없는 레코드는 생성하지 않음
    condition := expression.AttributeExists(
        expression.Name("product_id"),
    ).And(expression.GreaterThanEqual(
        expression.Name("stock"),
        expression.Value(quantity),
    ))

    expr, err := expression.NewBuilder().
        WithUpdate(update).
        WithCondition(condition).
        Build()
    if err != nil {
        return err
    }

    _, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
        TransactItems: []types.TransactWriteItem{
            {
                Put: &types.Put{
                    TableName:           aws.String(r.processedTableName),
                    Item:                processedItem,
                    ConditionExpression: aws.String("attribute_not_exists(order_id)"),
                },
            },
            {
                Update: &types.Update{
                    TableName: aws.String(r.stockTableName),
                    Key: map[string]types.AttributeValue{
                        "product_id": &types.AttributeValueMemberS{Value: productID},
                    },
                    ExpressionAttributeNames:  expr.Names(),
                    ExpressionAttributeValues: expr.Values(),
                    UpdateExpression:          expr.Update(),
                    ConditionExpression:       expr.Condition(),
                },
            },
        },
    })
    if err != nil {
        return r.mapDecrementError(ctx, productID, err)
    }

    return nil
}

func (r *StockRepository) mapDecrementError(ctx context.Context, productID string, err error) error {
    var canceled *types.TransactionCanceledException
    if !errors.As(err, &canceled) {
        return fmt.Errorf("failed to apply decrement transaction: %w", err)
    }

    reasons := canceled.CancellationReasons
    if len(reasons) == 2 {
        // Item order matches TransactItems: dedup put first, stock update second.
        if reasons[0].Code != nil && *reasons[0].Code == conditionalCheckFailed {
            return ErrDuplicateOrder
        }
        if reasons[1].Code != nil && *reasons[1].Code == conditionalCheckFailed {
            if _, getErr := r.GetStock(ctx, productID); getErr != nil {
                if errors.Is(getErr, ErrStockNotFound) {
                    return ErrStockNotFound
                }
            }
            return ErrInsufficientStock
        }
    }

    return fmt.Errorf("failed to apply decrement transaction: %w", err)
}
