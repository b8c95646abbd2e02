package memory

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-coach-sim/internal/kv"
)

// StoreFunc returns the kv.Store that backs one user's memory.
type StoreFunc func(userID string) kv.Store

// Pool hands out one Manager per user and keeps the most recently used ones
// loaded. A Manager evicted while leased is parked until its last lease is
// released, so a user never has two live managers writing the same store.
// An idle evicted Manager is rebuilt from its store on next use.
type Pool struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, *Manager]
	store  StoreFunc
	opts   []Option
	leases map[string]int
	parked map[string]*Manager
}

// NewPool builds a Pool holding at most size managers.
func NewPool(size int, store StoreFunc, opts ...Option) (*Pool, error) {
	if store == nil {
		return nil, errors.New("memory: nil store func")
	}
	if size <= 0 {
		size = 256
	}
	p := &Pool{
		store:  store,
		opts:   opts,
		leases: make(map[string]int),
		parked: make(map[string]*Manager),
	}
	// Eviction runs synchronously inside cache.Add, with p.mu held by For.
	cache, err := lru.NewWithEvict[string, *Manager](size, func(userID string, m *Manager) {
		if p.leases[userID] > 0 {
			p.parked[userID] = m
		}
	})
	if err != nil {
		return nil, err
	}
	p.cache = cache
	return p, nil
}

// For leases the user's Manager, loading it on first use. Load failures are
// logged and leave the manager empty. Call release once the request is done
// with the manager.
func (p *Pool) For(ctx context.Context, userID string) (m *Manager, release func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.cache.Get(userID)
	if !ok {
		if m, ok = p.parked[userID]; ok {
			delete(p.parked, userID)
		} else {
			m = NewManager(p.store(userID), p.opts...)
			if err := m.Load(ctx); err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("memory: starting from empty state")
			}
		}
		p.cache.Add(userID, m)
	}
	p.leases[userID]++

	var once sync.Once
	return m, func() { once.Do(func() { p.release(userID) }) }
}

func (p *Pool) release(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.leases[userID]--; p.leases[userID] > 0 {
		return
	}
	delete(p.leases, userID)
	delete(p.parked, userID)
}

// Len returns the number of cached managers.
func (p *Pool) Len() int { return p.cache.Len() }
