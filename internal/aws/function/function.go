package function

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/entities"
)

type API interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Client hands finished games to the EndGame function. The invocation is
// asynchronous: a nil error only means the event was queued.
type Client struct {
	lambda              API
	endGameFunctionName *string
}

func NewClient(lambdaClient API, endGameFunctionName string) *Client {
	return &Client{
		lambda:              lambdaClient,
		endGameFunctionName: aws.String(endGameFunctionName),
	}
}

func (client *Client) SaveFinishedGame(ctx context.Context, game entities.FinishedGame) error {
	payload, err := json.Marshal(dtos.FinishedGameToRequest(game))
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	_, err = client.lambda.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   client.endGameFunctionName,
		Payload:        payload,
		InvocationType: types.InvocationTypeEvent,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke end game: %w", err)
	}
	return nil
}
