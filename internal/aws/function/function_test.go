package function

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLambda struct {
	input *lambda.InvokeInput
	err   error
}

func (f *fakeLambda) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.input = params
	return &lambda.InvokeOutput{}, f.err
}

func TestSaveFinishedGameInvokesAsync(t *testing.T) {
	api := &fakeLambda{}
	game := entities.FinishedGame{
		MatchId: "m1",
		White:   entities.User{Id: "u1", Username: "alice"},
		Black:   entities.User{Id: "u2", Username: "bob"},
		Outcome: entities.WhiteWon,
		Method:  entities.Timeout,
	}

	require.NoError(t, NewClient(api, "EndGame").SaveFinishedGame(context.Background(), game))
	assert.Equal(t, "EndGame", aws.ToString(api.input.FunctionName))
	assert.Equal(t, types.InvocationTypeEvent, api.input.InvocationType)

	var req dtos.FinishedGameRequest
	require.NoError(t, json.Unmarshal(api.input.Payload, &req))
	assert.Equal(t, game, dtos.FinishedGameRequestToEntity(req))
}

func TestSaveFinishedGameInvokeFailure(t *testing.T) {
	cause := errors.New("throttled")
	err := NewClient(&fakeLambda{err: cause}, "EndGame").SaveFinishedGame(context.Background(), entities.FinishedGame{})
	assert.ErrorIs(t, err, cause)
}
