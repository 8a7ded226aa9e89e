package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
)

func (client *Client) GetUserById(ctx context.Context, userId string) (entities.User, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"UserId": &types.AttributeValueMemberS{
				Value: userId,
			},
		},
	})
	if err != nil {
		return entities.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	if output.Item == nil {
		return entities.User{}, errs.ErrUserNotFound
	}
	var user entities.User
	if err := attributevalue.UnmarshalMap(output.Item, &user); err != nil {
		return entities.User{}, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return user, nil
}

// GetUserByUsername queries the username index. Usernames are unique so
// only the first item counts.
func (client *Client) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	output, err := client.dynamodb.Query(ctx, &dynamodb.QueryInput{
		TableName:              client.cfg.UsersTableName,
		IndexName:              client.cfg.UsernameIndexName,
		KeyConditionExpression: aws.String("Username = :username"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":username": &types.AttributeValueMemberS{Value: username},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if len(output.Items) == 0 {
		return entities.User{}, errs.ErrUserNotFound
	}
	var user entities.User
	if err := attributevalue.UnmarshalMap(output.Items[0], &user); err != nil {
		return entities.User{}, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return user, nil
}
