package chat

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Broker carries channel payloads between service instances.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe delivers every message on channels matching pattern until ctx is done.
	Subscribe(ctx context.Context, pattern string, handle func(channel string, payload []byte)) error
}

type RedisBroker struct {
	db *redis.Client
}

func NewRedisBroker(db *redis.Client) *RedisBroker {
	return &RedisBroker{db: db}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.db.Publish(ctx, channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, pattern string, handle func(channel string, payload []byte)) error {
	sub := b.db.PSubscribe(ctx, pattern)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("error subscribing to %s: %w", pattern, err)
	}

	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handle(msg.Channel, []byte(msg.Payload))
			}
		}
	}()
	return nil
}

// MemoryBroker delivers messages synchronously inside one process.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[int]memorySub
	next int
}

type memorySub struct {
	pattern string
	handle  func(channel string, payload []byte)
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[int]memorySub)}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	var targets []memorySub
	for _, s := range b.subs {
		if ok, _ := path.Match(s.pattern, channel); ok {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.handle(channel, payload)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, pattern string, handle func(channel string, payload []byte)) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = memorySub{pattern: pattern, handle: handle}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()
	return nil
}
