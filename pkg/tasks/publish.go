package tasks

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/robodyne/go-follow/pkg/bus"
)

// pubSet caches one bus publisher per key so repeated publishes reuse
// the underlying transport.
type pubSet struct {
	bus  bus.Bus
	mu   sync.Mutex
	pubs map[string]bus.Publisher
}

func newPubSet(b bus.Bus) *pubSet {
	return &pubSet{bus: b, pubs: make(map[string]bus.Publisher)}
}

func (p *pubSet) publishJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	p.mu.Lock()
	pub, ok := p.pubs[key]
	if !ok {
		pub, err = p.bus.Publisher(key)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("open publisher %s: %w", key, err)
		}
		p.pubs[key] = pub
	}
	p.mu.Unlock()

	return pub.Put(data)
}

func (p *pubSet) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pub := range p.pubs {
		pub.Close()
	}
	p.pubs = make(map[string]bus.Publisher)
}

// Client submits jobs to a queue.
type Client struct {
	pubs *pubSet
}

// NewClient returns a job submitter over the given bus.
func NewClient(b bus.Bus) *Client {
	return &Client{pubs: newPubSet(b)}
}

// Submit announces a job on its queue.
func (c *Client) Submit(job Job) error {
	if job.TaskID == "" || job.Queue == "" {
		return fmt.Errorf("job needs a task ID and a queue")
	}
	return c.pubs.publishJSON(AnnounceKey(job.Queue), job)
}

// Close releases the client's publishers.
func (c *Client) Close() {
	c.pubs.Close()
}
