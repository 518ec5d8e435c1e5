package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/robodyne/go-follow/internal/log"
)

// recvTimeout bounds each blocking receive so subscription goroutines can
// notice context cancellation.
const recvTimeout = 200 * time.Millisecond

// subscribeBuffer is the per-subscription channel depth. Camera frames at
// 30fps burst; a slow consumer drops samples rather than blocking the
// receive loop.
const subscribeBuffer = 128

// ZMQBus is a Bus backed by ZeroMQ PUB/SUB sockets speaking a two-frame
// [key, payload] envelope through an XSUB/XPUB broker. Publishers connect
// to the broker's ingress endpoint, subscribers to its egress endpoint.
type ZMQBus struct {
	pubEndpoint string
	subEndpoint string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewZMQBus creates a bus session against the given broker endpoints,
// e.g. "tcp://127.0.0.1:5555" (publish) and "tcp://127.0.0.1:5556"
// (subscribe).
func NewZMQBus(pubEndpoint, subEndpoint string) *ZMQBus {
	return &ZMQBus{
		pubEndpoint: pubEndpoint,
		subEndpoint: subEndpoint,
	}
}

// Publisher declares a publisher for key. Each publisher owns its socket,
// so independent publishers never contend.
func (b *ZMQBus) Publisher(key string) (Publisher, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("bus: session closed")
	}

	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("bus: create publisher socket: %w", err)
	}
	if err := socket.Connect(b.pubEndpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("bus: connect %s: %w", b.pubEndpoint, err)
	}

	return &zmqPublisher{key: key, socket: socket}, nil
}

// Subscribe opens a SUB socket filtered on keyPrefix and pumps samples
// into a channel until ctx is done.
func (b *ZMQBus) Subscribe(ctx context.Context, keyPrefix string) (<-chan Sample, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("bus: session closed")
	}

	socket, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("bus: create subscriber socket: %w", err)
	}
	if err := socket.Connect(b.subEndpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("bus: connect %s: %w", b.subEndpoint, err)
	}
	if err := socket.SetSubscribe(keyPrefix); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("bus: subscribe %q: %w", keyPrefix, err)
	}
	if err := socket.SetRcvtimeo(recvTimeout); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("bus: set receive timeout: %w", err)
	}

	out := make(chan Sample, subscribeBuffer)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(out)
		defer socket.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			frames, err := socket.RecvMessageBytes(0)
			if err != nil {
				if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
					// Receive timeout; poll ctx again.
					continue
				}
				log.Warn("bus receive error", "prefix", keyPrefix, "error", err)
				continue
			}
			if len(frames) != 2 {
				log.Warn("bus dropping malformed message", "frames", len(frames))
				continue
			}

			key := string(frames[0])
			if !strings.HasPrefix(key, keyPrefix) {
				continue
			}

			select {
			case out <- Sample{Key: key, Payload: frames[1]}:
			default:
				// Consumer is behind; losing a sample beats stalling the
				// socket.
				log.Debug("bus dropping sample, subscriber slow", "key", key)
			}
		}
	}()

	return out, nil
}

// Close marks the session closed and waits for subscription goroutines to
// drain. Publishers created from this bus must be closed by their owners.
func (b *ZMQBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

type zmqPublisher struct {
	key string

	mu     sync.Mutex
	socket *zmq4.Socket
	closed bool
}

func (p *zmqPublisher) Put(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("bus: publisher for %q closed", p.key)
	}
	if _, err := p.socket.SendMessage(p.key, payload); err != nil {
		return fmt.Errorf("bus: publish %q: %w", p.key, err)
	}
	return nil
}

func (p *zmqPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.socket.Close()
}

var _ Bus = (*ZMQBus)(nil)
