package sol

import (
	"context"
	"sync/atomic"
)

// RPCPool fans requests out over several endpoints round-robin, so one
// rate-limited endpoint does not throttle the whole service.
type RPCPool struct {
	clients []*Client
	index   uint64
}

// NewRPCPool creates a client per endpoint, each with its own request
// budget.
func NewRPCPool(ctx context.Context, endpoints []string, reqLimitPerSecond int) (*RPCPool, error) {
	pool := &RPCPool{clients: make([]*Client, 0, len(endpoints))}
	for _, endpoint := range endpoints {
		client, err := NewClient(ctx, endpoint, reqLimitPerSecond)
		if err != nil {
			return nil, err
		}
		pool.clients = append(pool.clients, client)
	}
	return pool, nil
}

// GetClient returns the next client in round-robin order, nil when the pool
// is empty.
func (p *RPCPool) GetClient() *Client {
	switch len(p.clients) {
	case 0:
		return nil
	case 1:
		return p.clients[0]
	}
	idx := atomic.AddUint64(&p.index, 1) % uint64(len(p.clients))
	return p.clients[idx]
}

// Size returns the number of endpoints in the pool.
func (p *RPCPool) Size() int {
	return len(p.clients)
}
