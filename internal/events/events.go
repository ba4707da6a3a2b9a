// Package events publishes lifecycle events after they commit.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event types
const (
	ApplicationCreated     = "application.created"
	ApplicationShortlisted = "application.shortlisted"
	ApplicationAccepted    = "application.accepted"
	ApplicationRejected    = "application.rejected"
	JobCreated             = "job.created"
	JobEdited              = "job.edited"
	JobClosed              = "job.closed"
	JobDeleted             = "job.deleted"
	JobRated               = "job.rated"
	UserRated              = "user.rated"
)

// SubjectPrefix is prepended to the event type to form the NATS subject
const SubjectPrefix = "fakedin."

// Event is a committed change on the board
type Event struct {
	Type          string    `json:"type"`
	ActorID       uuid.UUID `json:"actor_id"`
	JobID         uint      `json:"job_id,omitempty"`
	ApplicationID uint      `json:"application_id,omitempty"`
	UserID        uuid.UUID `json:"user_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Affected      int64     `json:"affected,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher sends events somewhere
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes events as JSON on fakedin.<type>
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("fakedin-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish marshals e and sends it without waiting for subscribers
func (p *NATSPublisher) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectPrefix+e.Type, data)
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	_ = p.nc.Drain()
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends e
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of what was published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the type of every recorded event in order
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
