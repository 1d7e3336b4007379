// Package urlcache keeps the most recent listing of each owner, signed
// download URLs included, so a repeated listing does not sign every file
// again. Entries are bounded by count and evicted by a pluggable policy.
package urlcache

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/servr/pkg/metadata"
)

const (
	// DefaultCapacity is the number of owners kept when none is configured.
	DefaultCapacity = 100

	// DefaultRefreshHorizon is the age after which a file's URL is signed
	// again. It stays below the 7 day signature lifetime so a cached URL is
	// never handed out after it expired.
	DefaultRefreshHorizon = 6 * 24 * time.Hour

	generationStripes = 64
)

// Listing is a snapshot of an owner's tree as returned by a list operation.
type Listing struct {
	Nodes      []*metadata.Node
	CapturedAt time.Time
}

// Clone returns a deep copy of l.
func (l Listing) Clone() Listing {
	out := Listing{CapturedAt: l.CapturedAt, Nodes: make([]*metadata.Node, len(l.Nodes))}
	for i, n := range l.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// NeedsRefresh reports whether n carries no usable URL at now: a file
// without URL or whose URL was signed more than horizon ago. Folders never
// need one.
func NeedsRefresh(n *metadata.Node, now time.Time, horizon time.Duration) bool {
	if n.IsFolder() {
		return false
	}
	return n.URL == "" || now.Sub(n.LastModified) > horizon
}

// Stale reports whether any node of l needs a refresh.
func (l Listing) Stale(now time.Time, horizon time.Duration) bool {
	for _, n := range l.Nodes {
		if NeedsRefresh(n, now, horizon) {
			return true
		}
	}
	return false
}

// Metrics receives cache events. A nil Metrics disables reporting.
type Metrics interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
}

// Config selects the policy and its capacity.
type Config struct {
	Policy   string `mapstructure:"policy" yaml:"policy" validate:"omitempty,oneof=lru 2q"`
	Capacity int    `mapstructure:"capacity" yaml:"capacity" validate:"gte=0"`
}

// Cache is safe for concurrent use. It never blocks on I/O and runs no
// background goroutine.
//
// Every Invalidate bumps a generation shared by a stripe of owners. A
// listing read before a mutation committed is stored only through
// PutIfUnchanged, which drops it when the generation moved in between.
type Cache struct {
	policy  Policy
	metrics Metrics
	stripes [generationStripes]generation
}

type generation struct {
	mu  sync.Mutex
	gen uint64
}

func (c *Cache) stripe(owner uuid.UUID) *generation {
	return &c.stripes[int(owner[len(owner)-1])%generationStripes]
}

// New creates a cache from cfg. metrics may be nil.
func New(cfg Config, metrics Metrics) (*Cache, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	policy, err := NewPolicy(cfg.Policy, capacity)
	if err != nil {
		return nil, err
	}
	return NewWithPolicy(policy, metrics), nil
}

// NewWithPolicy creates a cache on an existing policy.
func NewWithPolicy(policy Policy, metrics Metrics) *Cache {
	return &Cache{policy: policy, metrics: metrics}
}

// Get returns a copy of the owner's cached listing.
func (c *Cache) Get(owner uuid.UUID) (Listing, bool) {
	l, ok := c.policy.Get(owner)
	if c.metrics != nil {
		if ok {
			c.metrics.CacheHit()
		} else {
			c.metrics.CacheMiss()
		}
	}
	if !ok {
		return Listing{}, false
	}
	return l.Clone(), true
}

// Put stores a copy of l for owner, evicting another owner if full.
func (c *Cache) Put(owner uuid.UUID, l Listing) {
	g := c.stripe(owner)
	g.mu.Lock()
	defer g.mu.Unlock()
	c.add(owner, l)
}

// Generation returns the owner's current generation. Read it before loading
// the listing that is later handed to PutIfUnchanged.
func (c *Cache) Generation(owner uuid.UUID) uint64 {
	g := c.stripe(owner)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// PutIfUnchanged stores a copy of l only if no Invalidate touched the
// owner's stripe since gen was read. It reports whether l was stored.
func (c *Cache) PutIfUnchanged(owner uuid.UUID, gen uint64, l Listing) bool {
	g := c.stripe(owner)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return false
	}
	c.add(owner, l)
	return true
}

func (c *Cache) add(owner uuid.UUID, l Listing) {
	if evicted := c.policy.Add(owner, l.Clone()); evicted && c.metrics != nil {
		c.metrics.CacheEviction()
	}
}

// Invalidate drops the owner's entry. Called after every mutation.
func (c *Cache) Invalidate(owner uuid.UUID) {
	g := c.stripe(owner)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	c.policy.Remove(owner)
}

// Len returns the number of cached owners.
func (c *Cache) Len() int {
	return c.policy.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	for i := range c.stripes {
		c.stripes[i].mu.Lock()
		c.stripes[i].gen++
	}
	c.policy.Purge()
	for i := range c.stripes {
		c.stripes[i].mu.Unlock()
	}
}

func (c *Cache) String() string {
	return fmt.Sprintf("urlcache(%s, len=%d)", c.policy.Name(), c.Len())
}
