package cache

import (
	"context"
	"sync"
)

// DefaultMaxEntries bounds a Decisions memo created with a non-positive size.
const DefaultMaxEntries = 10000

// Key identifies one memoized check. Owner carries the owner-id of the
// resource so ownership-gated decisions are not shared across owners.
type Key struct {
	Principal    string
	Ability      string
	Scope        string
	ResourceType string
	ResourceID   string
	Owner        string
}

// Decisions is a generation-checked decision memo. It is safe for
// concurrent use.
type Decisions struct {
	gen Generation
	max int

	mu      sync.Mutex
	seen    int64
	entries map[Key]bool
}

// NewDecisions returns a memo bounded to maxEntries, invalidated by gen.
func NewDecisions(gen Generation, maxEntries int) *Decisions {
	if gen == nil {
		gen = NewLocalGeneration()
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Decisions{gen: gen, max: maxEntries, entries: make(map[Key]bool)}
}

// Lookup returns the memoized decision for k, if any, together with the
// generation it was looked up under. Pass that generation to Store.
func (d *Decisions) Lookup(ctx context.Context, k Key) (allowed, ok bool, gen int64, err error) {
	gen, err = d.gen.Current(ctx)
	if err != nil {
		return false, false, 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.observe(gen)
	allowed, ok = d.entries[k]
	return allowed, ok, gen, nil
}

// Store records a decision computed under gen. It is dropped when the
// generation moved on in the meantime.
func (d *Decisions) Store(ctx context.Context, k Key, allowed bool, gen int64) error {
	current, err := d.gen.Current(ctx)
	if err != nil {
		return err
	}
	if current != gen {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.observe(current)
	if d.seen != gen {
		return nil
	}
	if len(d.entries) >= d.max {
		d.entries = make(map[Key]bool)
	}
	d.entries[k] = allowed
	return nil
}

// Refresh bumps the generation and drops every memoized decision.
func (d *Decisions) Refresh(ctx context.Context) error {
	gen, err := d.gen.Bump(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = make(map[Key]bool)
	if err == nil {
		d.seen = gen
	}
	return err
}

// Len returns the number of memoized decisions.
func (d *Decisions) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// observe must be called with mu held.
func (d *Decisions) observe(gen int64) {
	if gen != d.seen {
		d.entries = make(map[Key]bool)
		d.seen = gen
	}
}
