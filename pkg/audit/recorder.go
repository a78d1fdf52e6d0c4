package audit

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Recorder fans events out to a Logger and an optional Store. Each
// recorded event gets a fresh id in its meta structured data.
type Recorder struct {
	logger *Logger
	store  *Store
	newID  func() string
}

// NewRecorder returns a Recorder. Either argument may be nil.
func NewRecorder(logger *Logger, store *Store) *Recorder {
	return &Recorder{logger: logger, store: store, newID: uuid.NewString}
}

// Record logs and persists event. Persistence failures are reported on
// stderr and never fail the caller.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil {
		return
	}
	event = identified{Event: event, id: r.newID()}

	if r.logger != nil {
		r.logger.Log(event)
	}
	if err := r.store.Save(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "audit: failed to save event: %v\n", err)
	}
}

// Close closes the underlying store.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.store.Close()
}

type identified struct {
	Event
	id string
}

func (e identified) StructuredData() map[string]map[string]string {
	sd := e.Event.StructuredData()
	if sd == nil {
		sd = map[string]map[string]string{}
	}
	sd[SDIDMeta] = map[string]string{"id": e.id}
	return sd
}
