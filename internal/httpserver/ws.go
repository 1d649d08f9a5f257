package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/wordduel/internal/matchmaking"
	"github.com/robalobadob/wordduel/internal/realtime"
)

// Events sent by the server in addition to hub messages.
const (
	eventSnapshot = "snapshot"
	eventQueued   = "queued"
	eventMatched  = "matched"
	eventError    = "error"
)

const writeTimeout = 5 * time.Second

func (s *Server) accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.opts.ClientOrigin),
	})
}

func ping(ctx context.Context, c *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Ping(ctx)
}

func send(ctx context.Context, c *websocket.Conn, m realtime.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, m)
}

// handleGameEvents streams a session's live events to one participant.
// The first message is a snapshot of the caller's view; after that every
// hub message on the session channel is forwarded until the client leaves.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lg := hlog.FromRequest(r)

	// Subscribe before the snapshot so nothing between the two is lost.
	sub := s.deps.Hub.Subscribe(realtime.GameChannel(id), 32)
	defer sub.Close()

	view, err := s.deps.Games.FetchSession(r.Context(), id, me(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.accept(w, r)
	if err != nil {
		lg.Warn().Err(err).Msg("events: websocket accept failed")
		return
	}
	defer c.CloseNow()
	ctx := c.CloseRead(r.Context())

	if err := send(ctx, c, realtime.Message{Channel: realtime.GameChannel(id), Event: eventSnapshot, Payload: view}); err != nil {
		return
	}

	beat := time.NewTicker(s.opts.Heartbeat)
	defer beat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.C:
			if err := send(ctx, c, m); err != nil {
				lg.Debug().Err(err).Msg("events: write failed")
				return
			}
		case <-beat.C:
			if err := ping(ctx, c); err != nil {
				return
			}
		}
	}
}

// handleMatchmaking queues the caller for as long as the connection is
// open. The result (or error) is the last message before a normal close.
func (s *Server) handleMatchmaking(w http.ResponseWriter, r *http.Request) {
	player := me(r)
	lg := hlog.FromRequest(r)

	c, err := s.accept(w, r)
	if err != nil {
		lg.Warn().Err(err).Msg("matchmaking: websocket accept failed")
		return
	}
	defer c.CloseNow()
	ctx, cancel := context.WithCancel(c.CloseRead(r.Context()))
	defer cancel()

	if err := send(ctx, c, realtime.Message{Channel: matchmaking.Channel, Event: eventQueued}); err != nil {
		return
	}

	// Heartbeat: a failed ping ends the seek; a good one keeps presence fresh.
	go func() {
		t := time.NewTicker(s.opts.Heartbeat)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := ping(ctx, c); err != nil {
					cancel()
					return
				}
				s.deps.Hub.Touch(matchmaking.Channel, player)
			}
		}
	}()

	m, err := s.deps.Queue.Seek(ctx, player)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		_, body := errorFor(err)
		lg.Warn().Err(err).Msg("matchmaking: seek failed")
		_ = send(ctx, c, realtime.Message{Channel: matchmaking.Channel, Event: eventError, Payload: body})
		_ = c.Close(websocket.StatusNormalClosure, body.Error)
		return
	}
	if err := send(ctx, c, realtime.Message{Channel: matchmaking.Channel, Event: eventMatched, Payload: m}); err != nil {
		return
	}
	_ = c.Close(websocket.StatusNormalClosure, eventMatched)
}
