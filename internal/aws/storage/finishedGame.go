package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chess-vn/livematch/internal/domains/entities"
)

// SaveFinishedGame writes the game record and both tallies in a single
// transaction. A record that already exists fails the whole transaction,
// so a replayed save never counts twice.
func (client *Client) SaveFinishedGame(ctx context.Context, game entities.FinishedGame) error {
	av, err := attributevalue.MarshalMap(game)
	if err != nil {
		return fmt.Errorf("failed to marshal finished game map: %w", err)
	}

	whiteScore, blackScore := game.Outcome.Score()
	_, err = client.dynamodb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           client.cfg.FinishedGamesTableName,
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(MatchId)"),
				},
			},
			client.tallyUpdate(game.White.Id, whiteScore),
			client.tallyUpdate(game.Black.Id, blackScore),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save finished game: %w", err)
	}
	return nil
}

func (client *Client) tallyUpdate(userId string, score float64) types.TransactWriteItem {
	attr := "Draws"
	switch score {
	case 1:
		attr = "Wins"
	case 0:
		attr = "Losses"
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: client.cfg.TalliesTableName,
			Key: map[string]types.AttributeValue{
				"UserId": &types.AttributeValueMemberS{Value: userId},
			},
			UpdateExpression: aws.String("ADD #field :one"),
			ExpressionAttributeNames: map[string]string{
				"#field": attr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":one": &types.AttributeValueMemberN{Value: strconv.Itoa(1)},
			},
		},
	}
}
