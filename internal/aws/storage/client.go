package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// API is the subset of the DynamoDB client used by Client.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type Config struct {
	UsersTableName         *string
	UsernameIndexName      *string
	FinishedGamesTableName *string
	TalliesTableName       *string
}

func NewConfig(usersTable, finishedGamesTable, talliesTable string) Config {
	return Config{
		UsersTableName:         aws.String(usersTable),
		UsernameIndexName:      aws.String("UsernameIndex"),
		FinishedGamesTableName: aws.String(finishedGamesTable),
		TalliesTableName:       aws.String(talliesTable),
	}
}

type Client struct {
	dynamodb API
	cfg      Config
}

func NewClient(dynamoClient API, cfg Config) *Client {
	return &Client{
		dynamodb: dynamoClient,
		cfg:      cfg,
	}
}

func (client *Client) Close() error {
	return nil
}
