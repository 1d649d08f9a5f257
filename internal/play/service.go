// Package play is the game core: session lifecycle, the guess pipeline,
// multiplayer reconciliation and statistics. It talks to storage through
// store.Store and announces state changes through a Publisher. Callers pass
// the authenticated player id explicitly into every operation.
package play

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/store"
)

// Publisher receives session events after each persisted step.
// Delivery is best effort; Publish must not block for long.
type Publisher interface {
	Publish(ctx context.Context, ev game.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, game.Event) {}

// Service runs game operations against a store.
type Service struct {
	store store.Store
	pub   Publisher
	salt  string
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event sink (default: drop events).
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithDailySalt sets the secret used to pick the daily word.
func WithDailySalt(salt string) Option {
	return func(s *Service) { s.salt = salt }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		pub:   nopPublisher{},
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) publish(ctx context.Context, ev game.Event) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	s.pub.Publish(ctx, ev)
}

// persistErr wraps a store failure. partial marks failures after the guess
// (or another first write) of the operation was already stored.
func persistErr(ctx context.Context, op string, partial bool, err error) error {
	log.Ctx(ctx).Error().Err(err).Str("op", op).Bool("partial", partial).Msg("store failure")
	return &game.PersistenceError{Op: op, Partial: partial, Err: err}
}

func notFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
