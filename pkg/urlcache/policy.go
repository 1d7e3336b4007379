package urlcache

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Policy is the eviction strategy behind a Cache. Implementations must be
// safe for concurrent use.
type Policy interface {
	Name() string
	Get(owner uuid.UUID) (Listing, bool)
	// Add stores l and reports whether another entry was evicted for it.
	Add(owner uuid.UUID, l Listing) (evicted bool)
	Remove(owner uuid.UUID)
	Len() int
	Purge()
}

const (
	PolicyLRU      = "lru"
	PolicyTwoQueue = "2q"
)

// NewPolicy builds the named policy. An empty name selects LRU.
func NewPolicy(name string, capacity int) (Policy, error) {
	switch name {
	case "", PolicyLRU:
		return NewLRU(capacity)
	case PolicyTwoQueue:
		return NewTwoQueue(capacity)
	default:
		return nil, fmt.Errorf("unknown cache policy %q (want %s or %s)", name, PolicyLRU, PolicyTwoQueue)
	}
}

// lruPolicy evicts the least recently used owner.
type lruPolicy struct {
	cache *lru.Cache[uuid.UUID, Listing]
}

// NewLRU creates a least-recently-used policy holding capacity owners.
func NewLRU(capacity int) (Policy, error) {
	c, err := lru.New[uuid.UUID, Listing](capacity)
	if err != nil {
		return nil, err
	}
	return &lruPolicy{cache: c}, nil
}

func (p *lruPolicy) Name() string { return PolicyLRU }

func (p *lruPolicy) Get(owner uuid.UUID) (Listing, bool) { return p.cache.Get(owner) }

func (p *lruPolicy) Add(owner uuid.UUID, l Listing) bool { return p.cache.Add(owner, l) }

func (p *lruPolicy) Remove(owner uuid.UUID) { p.cache.Remove(owner) }

func (p *lruPolicy) Len() int { return p.cache.Len() }

func (p *lruPolicy) Purge() { p.cache.Purge() }

// twoQueuePolicy keeps recently and frequently used owners in separate
// queues so a burst of one-off listings does not flush the regulars.
type twoQueuePolicy struct {
	cache    *lru.TwoQueueCache[uuid.UUID, Listing]
	capacity int
}

// NewTwoQueue creates a 2Q policy holding capacity owners.
func NewTwoQueue(capacity int) (Policy, error) {
	c, err := lru.New2Q[uuid.UUID, Listing](capacity)
	if err != nil {
		return nil, err
	}
	return &twoQueuePolicy{cache: c, capacity: capacity}, nil
}

func (p *twoQueuePolicy) Name() string { return PolicyTwoQueue }

func (p *twoQueuePolicy) Get(owner uuid.UUID) (Listing, bool) { return p.cache.Get(owner) }

// Add infers eviction from the size: 2Q exposes no eviction callback.
func (p *twoQueuePolicy) Add(owner uuid.UUID, l Listing) bool {
	full := !p.cache.Contains(owner) && p.cache.Len() >= p.capacity
	p.cache.Add(owner, l)
	return full
}

func (p *twoQueuePolicy) Remove(owner uuid.UUID) { p.cache.Remove(owner) }

func (p *twoQueuePolicy) Len() int { return p.cache.Len() }

func (p *twoQueuePolicy) Purge() { p.cache.Purge() }
