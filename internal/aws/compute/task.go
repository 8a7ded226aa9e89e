package compute

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
)

var ErrNoTaskMetadata = fmt.Errorf("task metadata endpoint not set")

type TaskMetadata struct {
	TaskArn     string `json:"TaskARN"`
	ClusterName string `json:"Cluster"`
}

// LoadTaskMetadata reads the running task identity from the ECS metadata
// endpoint and stores it in the client config.
func (client *Client) LoadTaskMetadata(ctx context.Context) (TaskMetadata, error) {
	uri := os.Getenv("ECS_CONTAINER_METADATA_URI_V4")
	if uri == "" {
		return TaskMetadata{}, ErrNoTaskMetadata
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+"/task", nil)
	if err != nil {
		return TaskMetadata{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.http.Do(req)
	if err != nil {
		return TaskMetadata{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return TaskMetadata{}, fmt.Errorf("unexpected metadata status: %d", resp.StatusCode)
	}
	var metadata TaskMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return TaskMetadata{}, fmt.Errorf("failed to decode body: %w", err)
	}
	client.cfg.ClusterName = aws.String(metadata.ClusterName)
	client.cfg.TaskArn = aws.String(metadata.TaskArn)
	return metadata, nil
}

func (client *Client) UpdateServerProtection(
	ctx context.Context,
	enabled bool,
) error {
	if client.cfg.ClusterName == nil || client.cfg.TaskArn == nil {
		return fmt.Errorf("missing task metadata")
	}
	_, err := client.ecs.UpdateTaskProtection(ctx, &ecs.UpdateTaskProtectionInput{
		Cluster:           client.cfg.ClusterName,
		Tasks:             []string{*client.cfg.TaskArn},
		ProtectionEnabled: enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to update task protection: %w", err)
	}
	return nil
}
