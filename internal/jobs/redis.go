package jobs

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher relays job-view snapshots to any number of listeners,
// decoupling Events from the in-process poll loop. It is the same
// backend-selection precedent as internal/vectorindex.NewQdrant: a
// configuration-selected alternate for a core component, here applied to
// the Job Manager's SSE fan-out rather than its state, which stays
// in-process either way.
type Publisher interface {
	Publish(ctx context.Context, jobID string, payload []byte) error
	Subscribe(ctx context.Context, jobID string) (ch <-chan []byte, unsubscribe func())
}

// RedisPublisher fans job-view snapshots out over Redis pub/sub, letting
// Events be served from any process subscribed to the same Redis instance
// rather than only the one that ran the job — useful once the HTTP API is
// scaled beyond a single instance. Grounded on the teacher's use of
// redis/go-redis/v9 as its pub/sub client elsewhere in the stack.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(dsn string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("jobs: parse redis dsn: %w", err)
	}
	return &RedisPublisher{client: redis.NewClient(opts)}, nil
}

func channelFor(jobID string) string {
	return "synapse:jobs:" + jobID
}

func (p *RedisPublisher) Publish(ctx context.Context, jobID string, payload []byte) error {
	return p.client.Publish(ctx, channelFor(jobID), payload).Err()
}

func (p *RedisPublisher) Subscribe(ctx context.Context, jobID string) (<-chan []byte, func()) {
	sub := p.client.Subscribe(ctx, channelFor(jobID))
	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { _ = sub.Close() }
}

// Close releases the underlying Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
