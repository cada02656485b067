// internal/events/events.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"paycheck-tracker/internal/domain"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// Event describes one successful write to a user's collection.
type Event struct {
	ID         string            `json:"id"`
	Action     Action            `json:"action"`
	Collection domain.Collection `json:"collection"`
	RecordID   string            `json:"record_id"`
	UserID     string            `json:"user_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Record     any               `json:"record,omitempty"`
}

func New(action Action, c domain.Collection, userID, recordID string, record any) Event {
	return Event{
		ID:         uuid.NewString(),
		Action:     action,
		Collection: c,
		RecordID:   recordID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Record:     record,
	}
}

// RoutingKey is "<collection>.<action>", e.g. "expenses.created".
func (e Event) RoutingKey() string {
	return fmt.Sprintf("%s.%s", e.Collection, e.Action)
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

var (
	_ Publisher = Nop{}
	_ Publisher = (*Recorder)(nil)
)
