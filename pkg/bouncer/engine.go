package bouncer

import (
	"context"
	"fmt"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/audit"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/cache"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/metrics"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// Engine is the authorization engine. It is safe for concurrent use as
// long as its Store is.
type Engine struct {
	store     store.Store
	ownership *Ownership
	cache     *cache.Decisions
	audit     *audit.Recorder
	metrics   *metrics.Metrics

	// set on engines handed out by Transaction
	tx      bool
	pending *[]audit.Event
}

// Option configures an Engine.
type Option func(*Engine)

// WithOwnership sets the owner-field registry used by the ownership gate.
func WithOwnership(o *Ownership) Option {
	return func(e *Engine) { e.ownership = o }
}

// WithCache memoizes Can results in d.
func WithCache(d *cache.Decisions) Option {
	return func(e *Engine) { e.cache = d }
}

// WithAudit records checks and mutations to r.
func WithAudit(r *audit.Recorder) Option {
	return func(e *Engine) { e.audit = r }
}

// WithMetrics instruments the engine with m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New returns an Engine over st.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{store: st}
	for _, opt := range opts {
		opt(e)
	}
	if e.ownership == nil {
		e.ownership = NewOwnership("")
	}
	return e
}

// Ownership returns the engine's owner-field registry.
func (e *Engine) Ownership() *Ownership {
	return e.ownership
}

// Transaction runs fn against an engine bound to a single store
// transaction. Mutations made through it commit together and the cache is
// refreshed once after the commit. Audit events are only recorded when the
// transaction commits.
func (e *Engine) Transaction(ctx context.Context, fn func(*Engine) error) error {
	if e.tx {
		return fn(e)
	}

	var pending []audit.Event
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		child := *e
		child.store = tx
		child.tx = true
		child.pending = &pending
		return fn(&child)
	})
	if err != nil {
		return err
	}

	for _, ev := range pending {
		e.audit.Record(ctx, ev)
	}
	return e.Refresh(ctx)
}

// Refresh invalidates every memoized decision. Mutations call it
// themselves; it is exported for callers that change grants behind the
// engine's back.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.Refresh(ctx); err != nil {
		return fmt.Errorf("bouncer: refresh: %w", err)
	}
	return nil
}

// mutate runs fn in a transaction, records the outcome and refreshes the
// cache after the commit.
func (e *Engine) mutate(ctx context.Context, op string, fn func(store.Store) error, event func(error) audit.Event) error {
	var err error
	if e.tx {
		err = fn(e.store)
	} else {
		err = e.store.Transaction(ctx, fn)
	}

	if err != nil {
		e.metrics.ObserveError(op)
		e.record(ctx, event(err), true)
		return err
	}

	e.metrics.ObserveMutation(op)
	e.record(ctx, event(nil), false)
	if e.tx {
		return nil
	}
	return e.Refresh(ctx)
}

// record sends ev to the audit trail. Inside a transaction, successful
// events wait for the commit.
func (e *Engine) record(ctx context.Context, ev audit.Event, failed bool) {
	if e.pending != nil && !failed {
		*e.pending = append(*e.pending, ev)
		return
	}
	e.audit.Record(ctx, ev)
}

type actorKey struct{}

// WithActor attaches the id of whoever is making changes to ctx. It shows
// up in the audit trail.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
