// Package matchmaking pairs players for multiplayer sessions over the
// realtime hub. Every connected seeker runs the same protocol; the lowest
// present id acts as initiator, creates the session and names the next id
// as its opponent, who joins and confirms.
package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/play"
	"github.com/robalobadob/wordduel/internal/realtime"
)

// Channel is the hub channel shared by all seekers.
const Channel = "matchmaking"

// Protocol events.
const (
	EventMatch    = "match"
	EventJoined   = "joined"
	EventDeclined = "declined"
)

// Offer is the payload of EventMatch.
type Offer struct {
	SessionID   string `json:"sessionId"`
	InitiatorID string `json:"initiatorId"`
	OpponentID  string `json:"opponentId"`
}

// Reply is the payload of EventJoined and EventDeclined.
type Reply struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

// Match is the result of a successful Seek.
type Match struct {
	SessionID  string `json:"sessionId"`
	OpponentID string `json:"opponentId,omitempty"`
	// Redirected is set when the player already had an active multiplayer
	// session and was sent there without queueing.
	Redirected bool `json:"redirected"`
}

// Sessions is the slice of the game core the queue drives.
type Sessions interface {
	CreateSession(ctx context.Context, playerID string, mode game.Mode) (*play.Created, error)
	JoinSession(ctx context.Context, sessionID, playerID string) error
	ActiveSession(ctx context.Context, playerID string, mode game.Mode) (*game.Session, error)
	FetchSession(ctx context.Context, sessionID, playerID string) (*play.SessionView, error)
	AbandonSession(ctx context.Context, sessionID, playerID string) (bool, error)
}

// Queue runs the matchmaking protocol.
type Queue struct {
	hub            *realtime.Hub
	games          Sessions
	confirmTimeout time.Duration
}

// NewQueue creates a queue. confirmTimeout bounds how long an initiator
// waits for its opponent before offering again (default 10s).
func NewQueue(hub *realtime.Hub, games Sessions, confirmTimeout time.Duration) *Queue {
	if confirmTimeout <= 0 {
		confirmTimeout = 10 * time.Second
	}
	return &Queue{hub: hub, games: games, confirmTimeout: confirmTimeout}
}

// seeker is one player's protocol state.
type seeker struct {
	q       *Queue
	player  string
	offer   *Offer          // outstanding offer while initiator
	mine    string          // unjoined session held by this seeker, if any
	created bool            // mine was created by this Seek
	skip    map[string]bool // players that declined our offers
	timer   *time.Timer
	timeout <-chan time.Time
}

// Seek queues playerID until paired, then returns the session. A player
// whose multiplayer session already has an opponent is redirected there; a
// session still waiting for one is offered from the queue instead. Leaving
// without a confirmed pairing (ctx cancelled or an error) withdraws any
// session this call created, so no one is left waiting in it.
func (q *Queue) Seek(ctx context.Context, playerID string) (m Match, err error) {
	if playerID == "" {
		return Match{}, game.ErrUnauthenticated
	}
	lg := log.Ctx(ctx).With().Str("player", playerID).Logger()
	s := &seeker{q: q, player: playerID, skip: map[string]bool{}}

	active, err := q.games.ActiveSession(ctx, playerID, game.ModeMultiplayer)
	if err != nil {
		return Match{}, err
	}
	if active != nil {
		view, err := q.games.FetchSession(ctx, active.ID, playerID)
		if err != nil {
			return Match{}, err
		}
		if view.Participants >= game.MaxPlayers {
			lg.Info().Str("session", active.ID).Msg("matchmaking: redirect to active session")
			return Match{SessionID: active.ID, Redirected: true}, nil
		}
		s.mine = active.ID
	}

	sub := q.hub.Subscribe(Channel, 32)
	defer sub.Close()
	q.hub.Track(Channel, playerID)
	defer q.hub.Untrack(Channel, playerID)

	defer s.stopTimer()
	defer func() {
		if err != nil && s.created {
			s.withdraw(context.WithoutCancel(ctx))
		}
	}()

	if err := s.evaluate(ctx, q.hub.Presence(Channel)); err != nil {
		return Match{}, err
	}

	for {
		select {
		case <-ctx.Done():
			lg.Debug().Msg("matchmaking: left queue")
			return Match{}, ctx.Err()

		case <-s.timeout:
			lg.Debug().Msg("matchmaking: offer expired")
			s.offer = nil
			s.stopTimer()
			if err := s.evaluate(ctx, q.hub.Presence(Channel)); err != nil {
				return Match{}, err
			}

		case msg := <-sub.C:
			m, done, err := s.handle(ctx, msg)
			if err != nil {
				return Match{}, err
			}
			if done {
				lg.Info().Str("session", m.SessionID).Str("opponent", m.OpponentID).Msg("matchmaking: paired")
				return m, nil
			}
		}
	}
}

// handle processes one channel message.
func (s *seeker) handle(ctx context.Context, msg realtime.Message) (Match, bool, error) {
	switch msg.Event {
	case realtime.EventPresenceSync:
		ps, ok := msg.Payload.(realtime.PresenceSync)
		if !ok {
			return Match{}, false, nil
		}
		present := make(map[string]bool, len(ps.Players))
		for _, id := range ps.Players {
			present[id] = true
		}
		for id := range s.skip {
			if !present[id] {
				delete(s.skip, id)
			}
		}
		return Match{}, false, s.evaluate(ctx, ps.Players)

	case EventMatch:
		o, ok := msg.Payload.(Offer)
		if !ok || o.OpponentID != s.player {
			return Match{}, false, nil
		}
		if s.mine != "" {
			// A lower id is initiating; give up our own unjoined session.
			ok, err := s.q.games.AbandonSession(ctx, s.mine, s.player)
			if err != nil || !ok {
				// !ok: someone joined ours meanwhile and their joined reply is on its way.
				s.q.hub.Broadcast(Channel, EventDeclined, Reply{SessionID: o.SessionID, PlayerID: s.player})
				return Match{}, false, err
			}
			log.Ctx(ctx).Debug().Str("player", s.player).Str("session", s.mine).Msg("matchmaking: withdrew own session")
			s.mine, s.created, s.offer = "", false, nil
			s.stopTimer()
		}
		if err := s.q.games.JoinSession(ctx, o.SessionID, s.player); err != nil {
			s.q.hub.Broadcast(Channel, EventDeclined, Reply{SessionID: o.SessionID, PlayerID: s.player})
			if errors.Is(err, game.ErrNotJoinable) {
				// The initiator withdrew the offer; keep waiting.
				return Match{}, false, nil
			}
			return Match{}, false, fmt.Errorf("join offered session: %w", err)
		}
		s.q.hub.Broadcast(Channel, EventJoined, Reply{SessionID: o.SessionID, PlayerID: s.player})
		return Match{SessionID: o.SessionID, OpponentID: o.InitiatorID}, true, nil

	case EventJoined:
		r, ok := msg.Payload.(Reply)
		if !ok || s.offer == nil || r.SessionID != s.offer.SessionID || r.PlayerID != s.offer.OpponentID {
			return Match{}, false, nil
		}
		return Match{SessionID: r.SessionID, OpponentID: r.PlayerID}, true, nil

	case EventDeclined:
		r, ok := msg.Payload.(Reply)
		if !ok || s.offer == nil || r.SessionID != s.offer.SessionID {
			return Match{}, false, nil
		}
		s.skip[r.PlayerID] = true
		s.offer = nil
		s.stopTimer()
		return Match{}, false, s.evaluate(ctx, s.q.hub.Presence(Channel))
	}
	return Match{}, false, nil
}

// evaluate makes an offer when this player is the lowest present id and
// no offer is outstanding.
func (s *seeker) evaluate(ctx context.Context, players []string) error {
	if s.offer != nil || len(players) < 2 || players[0] != s.player {
		return nil
	}
	opponent := ""
	for _, id := range players[1:] {
		if !s.skip[id] {
			opponent = id
			break
		}
	}
	if opponent == "" {
		return nil
	}

	created, err := s.q.games.CreateSession(ctx, s.player, game.ModeMultiplayer)
	if err != nil {
		return fmt.Errorf("create matched session: %w", err)
	}
	if !created.Existing {
		s.created = true
	}
	s.mine = created.Session.ID
	s.offer = &Offer{SessionID: created.Session.ID, InitiatorID: s.player, OpponentID: opponent}
	s.startTimer()
	s.q.hub.Broadcast(Channel, EventMatch, *s.offer)
	log.Ctx(ctx).Debug().
		Str("player", s.player).Str("opponent", opponent).Str("session", s.offer.SessionID).
		Msg("matchmaking: offer sent")
	return nil
}

// withdraw removes the session this seeker created if nobody joined it.
func (s *seeker) withdraw(ctx context.Context) {
	if s.mine == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := s.q.games.AbandonSession(ctx, s.mine, s.player)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session", s.mine).Msg("matchmaking: withdraw failed")
		return
	}
	if ok {
		log.Ctx(ctx).Debug().Str("player", s.player).Str("session", s.mine).Msg("matchmaking: withdrew unjoined session")
	}
}

func (s *seeker) startTimer() {
	s.stopTimer()
	s.timer = time.NewTimer(s.q.confirmTimeout)
	s.timeout = s.timer.C
}

func (s *seeker) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timeout = nil
}
