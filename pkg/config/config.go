package config

import (
    "time"

    "github.com/kelseyhightower/envconfig"
)

type Config struct {
    Port      string `envconfig:"PORT" default:"8080"`
    AWSRegion string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
    LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
    LocalMode bool   `envconfig:"LOCAL_MODE" default:"true"` // AWS 없이 로컬 실행 모드

    // LocalMode에서 사용하는 DynamoDB Local 엔드포인트
    DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:"http://localhost:8000"`

    OrderTableName     string `envconfig:"ORDER_TABLE_NAME" default:"orders-table"`
    OutboxTableName    string `envconfig:"OUTBOX_TABLE_NAME" default:"order-outbox-table"`
    StockTableName     string `envconfig:"STOCK_TABLE_NAME" default:"stock-table"`
    ProcessedTableName string `envconfig:"PROCESSED_TABLE_NAME" default:"processed-orders-table"`

    KafkaBrokers    string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
    ConsumerGroupID string `envconfig:"CONSUMER_GROUP_ID" default:"inventory-service-group"`

    CatalogBaseURL string `envconfig:"CATALOG_BASE_URL" default:"http://product-service:8080"`

    OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`

    // 부트스트랩 시 멱등 시드: "productId=stock,..."
    SeedStock string `envconfig:"SEED_STOCK" default:"1=10,2=50,3=30"`
}

func Load() (*Config, error) {
    var cfg Config
    if err := envconfig.Process("", &cfg); err != nil {
        return nil, err
    }
    return &cfg, nil
}
