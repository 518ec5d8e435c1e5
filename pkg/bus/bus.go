// Package bus provides the pub/sub session the bridge talks through.
//
// Keys use zenoh-style expressions ("rt/cmd_vel",
// "comp/tasks/<id>/claim"). Delivery ordering and loss semantics belong
// to the concrete transport; subscribers must tolerate both dropped and
// duplicated samples.
package bus

import "context"

// Sample is one delivered message: the key it was published on and the
// raw payload. The payload is owned by the receiver.
type Sample struct {
	Key     string
	Payload []byte
}

// Publisher sends payloads on a single key.
type Publisher interface {
	Put(payload []byte) error
	Close() error
}

// Bus is a pub/sub session. Implementations must be safe for concurrent
// use by multiple goroutines.
type Bus interface {
	// Publisher declares a publisher for the given key.
	Publisher(key string) (Publisher, error)

	// Subscribe delivers every sample whose key starts with keyPrefix on
	// the returned channel until ctx is cancelled or the bus is closed.
	// The channel is closed when the subscription ends.
	Subscribe(ctx context.Context, keyPrefix string) (<-chan Sample, error)

	Close() error
}
