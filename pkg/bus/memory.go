package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryBus is an in-process Bus. It backs tests and the loopback demos,
// where publisher and subscriber live in the same binary and standing up
// a broker would be noise.
type MemoryBus struct {
	mu     sync.Mutex
	subs   []*memorySub
	closed bool
}

type memorySub struct {
	prefix string
	ch     chan Sample
	done   <-chan struct{}
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publisher(key string) (Publisher, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("bus: session closed")
	}
	return &memoryPublisher{bus: b, key: key}, nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, keyPrefix string) (<-chan Sample, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("bus: session closed")
	}

	sub := &memorySub{
		prefix: keyPrefix,
		ch:     make(chan Sample, subscribeBuffer),
		done:   ctx.Done(),
	}
	b.subs = append(b.subs, sub)

	go func() {
		<-ctx.Done()
		b.remove(sub)
	}()

	return sub.ch, nil
}

func (b *MemoryBus) remove(sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

func (b *MemoryBus) publish(key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bus: session closed")
	}

	// Payload is copied once so subscribers never alias the publisher's
	// buffer.
	data := append([]byte(nil), payload...)
	for _, sub := range b.subs {
		if !strings.HasPrefix(key, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- Sample{Key: key, Payload: data}:
		default:
			// Same policy as the ZMQ session: drop rather than stall.
		}
	}
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
	return nil
}

type memoryPublisher struct {
	bus *MemoryBus
	key string
}

func (p *memoryPublisher) Put(payload []byte) error {
	return p.bus.publish(p.key, payload)
}

func (p *memoryPublisher) Close() error { return nil }

var _ Bus = (*MemoryBus)(nil)
