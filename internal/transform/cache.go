package transform

import "sync"

// Cache builds each chain at most once. Reads of built chains take no lock.
// Failed builds are not cached, so a later call retries.
type Cache struct {
	provider Provider

	mu     sync.Mutex
	chains sync.Map // id -> []Transform
}

// NewCache returns a cache over provider.
func NewCache(provider Provider) *Cache {
	return &Cache{provider: provider}
}

// Get returns the chain for id. An empty id is the empty chain.
func (c *Cache) Get(id string) ([]Transform, error) {
	if id == "" || c == nil {
		return nil, nil
	}
	if v, ok := c.chains.Load(id); ok {
		return v.([]Transform), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.chains.Load(id); ok {
		return v.([]Transform), nil
	}
	ts, err := c.provider.Transforms(id)
	if err != nil {
		return nil, err
	}
	c.chains.Store(id, ts)
	return ts, nil
}
