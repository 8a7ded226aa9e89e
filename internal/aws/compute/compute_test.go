package compute

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeECS struct {
	input *ecs.UpdateTaskProtectionInput
}

func (f *fakeECS) UpdateTaskProtection(ctx context.Context, params *ecs.UpdateTaskProtectionInput, optFns ...func(*ecs.Options)) (*ecs.UpdateTaskProtectionOutput, error) {
	f.input = params
	return &ecs.UpdateTaskProtectionOutput{}, nil
}

func TestLoadTaskMetadataAndProtect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/task", r.URL.Path)
		w.Write([]byte(`{"TaskARN":"arn:aws:ecs:task/1","Cluster":"games"}`))
	}))
	defer srv.Close()
	t.Setenv("ECS_CONTAINER_METADATA_URI_V4", srv.URL)

	api := &fakeECS{}
	client := NewClient(api, Config{})
	require.Error(t, client.UpdateServerProtection(context.Background(), true))

	metadata, err := client.LoadTaskMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TaskMetadata{TaskArn: "arn:aws:ecs:task/1", ClusterName: "games"}, metadata)

	require.NoError(t, client.UpdateServerProtection(context.Background(), true))
	assert.Equal(t, "games", aws.ToString(api.input.Cluster))
	assert.Equal(t, []string{"arn:aws:ecs:task/1"}, api.input.Tasks)
	assert.True(t, api.input.ProtectionEnabled)
}

func TestLoadTaskMetadataWithoutEndpoint(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI_V4", "")
	_, err := NewClient(&fakeECS{}, Config{}).LoadTaskMetadata(context.Background())
	assert.ErrorIs(t, err, ErrNoTaskMetadata)
}

type recordingUpdater struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

func (r *recordingUpdater) UpdateServerProtection(ctx context.Context, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, enabled)
	return r.err
}

func TestProtectorOnlyCallsOnTransitions(t *testing.T) {
	updater := &recordingUpdater{}
	p := newProtector(updater, time.Second)

	p.Observe(1)
	p.Wait()
	p.Observe(2)
	p.Observe(1)
	p.Wait()
	p.Observe(0)
	p.Wait()

	assert.Equal(t, []bool{true, false}, updater.calls)
}

func TestProtectorConvergesOnLatestState(t *testing.T) {
	updater := &recordingUpdater{}
	p := newProtector(updater, time.Second)

	for i := 0; i < 10; i++ {
		p.Observe(1)
		p.Observe(0)
	}
	p.Observe(1)
	p.Wait()

	require.NotEmpty(t, updater.calls)
	assert.True(t, updater.calls[len(updater.calls)-1])
	assert.True(t, p.applied)
}

func TestProtectorKeepsStateOnFailure(t *testing.T) {
	updater := &recordingUpdater{err: errors.New("denied")}
	p := newProtector(updater, time.Second)

	p.Observe(1)
	p.Wait()
	assert.False(t, p.applied)
}
