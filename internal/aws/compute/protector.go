package compute

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chess-vn/livematch/pkg/logging"
	"go.uber.org/zap"
)

type protectionUpdater interface {
	UpdateServerProtection(ctx context.Context, enabled bool) error
}

// Protector keeps the task protected from scale-in while at least one
// match is active.
type Protector struct {
	client  protectionUpdater
	timeout time.Duration

	desired atomic.Bool
	mu      sync.Mutex
	applied bool
	wg      sync.WaitGroup
}

func NewProtector(client *Client, timeout time.Duration) *Protector {
	return newProtector(client, timeout)
}

func newProtector(client protectionUpdater, timeout time.Duration) *Protector {
	return &Protector{
		client:  client,
		timeout: timeout,
	}
}

// Observe is called with the active match count after every change. It
// never blocks on the ECS call.
func (p *Protector) Observe(active int32) {
	want := active > 0
	if p.desired.Swap(want) == want {
		return
	}
	p.wg.Add(1)
	go p.sync()
}

// sync applies the latest desired state. Concurrent calls are serialized,
// so the last one to run always converges on the newest value.
func (p *Protector) sync() {
	defer p.wg.Done()
	p.mu.Lock()
	defer p.mu.Unlock()

	want := p.desired.Load()
	if want == p.applied {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.client.UpdateServerProtection(ctx, want); err != nil {
		logging.Error("failed to update server protection", zap.Bool("enabled", want), zap.Error(err))
		return
	}
	p.applied = want
	logging.Info("server protection updated", zap.Bool("enabled", want))
}

// Wait blocks until pending updates finish.
func (p *Protector) Wait() {
	p.wg.Wait()
}
