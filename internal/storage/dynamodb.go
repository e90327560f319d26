package storage

import (
    "context"

    "github.com/aws/aws-sdk-go-v2/aws"
    awsconfig "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/credentials"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb"
    pkgconfig "github.com/cloud-wave-best-zizon/order-pipeline/pkg/config"
)

// NewDynamoDBClient builds the shared DynamoDB client. In LocalMode it points
// at DynamoDB Local with static credentials instead of the AWS endpoint.
func NewDynamoDBClient(cfg *pkgconfig.Config) (*dynamodb.Client, error) {
    opts := []func(*awsconfig.LoadOptions) error{
        awsconfig.WithRegion(cfg.AWSRegion),
    }

    if cfg.LocalMode {
        opts = append(opts,
            awsconfig.WithCredentialsProvider(
                credentials.NewStaticCredentialsProvider("local", "local", ""),
            ),
        )
    }

    awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
    if err != nil {
        return nil, err
    }

    if cfg.LocalMode {
        return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
            o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
        }), nil
    }

    return dynamodb.NewFromConfig(awsCfg), nil
}
