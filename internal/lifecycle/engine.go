// Package lifecycle holds the rules of the application workflow: status
// transitions, job capacity, apply eligibility and rating aggregation.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/model"
)

// MaxActiveApplications is how many outstanding applications an applicant may hold
const MaxActiveApplications = 10

// Engine runs lifecycle operations against a Store
type Engine struct {
	store  Store
	pub    events.Publisher
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithPublisher sets where committed events go
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.pub = p
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine returns an engine on store
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		pub:    events.NopPublisher{},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now is the engine clock
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// run executes fn in one transaction and publishes the events it collected
// once the transaction committed.
func (e *Engine) run(ctx context.Context, op string, fn func(tx Store, emit func(events.Event)) error) error {
	var pending []events.Event
	err := e.store.Transaction(ctx, func(tx Store) error {
		pending = pending[:0]
		return fn(tx, func(ev events.Event) { pending = append(pending, ev) })
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			e.logger.Error().Err(err).Str("op", op).Msg("lifecycle operation failed")
		}
		return err
	}
	for _, ev := range pending {
		if ev.At.IsZero() {
			ev.At = e.Now()
		}
		if perr := e.pub.Publish(ctx, ev); perr != nil {
			e.logger.Warn().Err(perr).Str("event", ev.Type).Msg("publish event")
		}
	}
	return nil
}

func requireRole(actor Actor, role model.UserType) error {
	if actor.ID == uuid.Nil {
		return apperror.Forbidden(apperror.RuleWrongRole, "no authenticated user")
	}
	if actor.Role == model.UserTypeUnknown {
		return apperror.Forbidden(apperror.RuleRegistrationIncomplete, "complete your registration first")
	}
	if actor.Role != role {
		return apperror.Forbidden(apperror.RuleWrongRole, "only "+string(role)+"s can do this")
	}
	return nil
}

func requireOwner(actor Actor, job *model.Job) error {
	if job.PostedByID != actor.ID {
		return apperror.Forbidden(apperror.RuleNotOwner, "you did not post this job")
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
