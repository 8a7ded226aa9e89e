package compute

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/ecs"
)

// API is the subset of the ECS client used by Client.
type API interface {
	UpdateTaskProtection(ctx context.Context, params *ecs.UpdateTaskProtectionInput, optFns ...func(*ecs.Options)) (*ecs.UpdateTaskProtectionOutput, error)
}

type Config struct {
	ClusterName *string
	TaskArn     *string
}

type Client struct {
	ecs  API
	http *http.Client
	cfg  Config
}

func NewClient(ecsClient API, cfg Config) *Client {
	return &Client{
		ecs:  ecsClient,
		http: http.DefaultClient,
		cfg:  cfg,
	}
}
