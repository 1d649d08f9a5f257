// internal/realtime/hub.go
//
// In-process pub/sub with presence, the realtime channel behind the live
// game stream and matchmaking.
// Responsibilities:
//   - Named channels with any number of subscribers.
//   - Presence per channel (who is connected), announced as presence_sync.
//   - Bounded sends: a slow subscriber misses messages instead of stalling
//     the publisher.
//   - Sweeping presence entries whose connection stopped heartbeating.

package realtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
)

// EventPresenceSync carries the sorted ids present on a channel.
const EventPresenceSync = "presence_sync"

// Message is one delivery on a channel.
type Message struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// PresenceSync is the payload of EventPresenceSync.
type PresenceSync struct {
	Players []string `json:"players"`
}

// GameChannel names the channel that carries a session's events.
func GameChannel(sessionID string) string { return "game:" + sessionID }

type presence struct {
	conns int
	seen  time.Time
}

// Hub fans messages out to subscribers.
type Hub struct {
	mu          sync.RWMutex
	subs        map[string]map[*Subscription]struct{}
	present     map[string]map[string]*presence
	sendTimeout time.Duration
	now         func() time.Time
}

// NewHub creates a hub; sendTimeout bounds each delivery (default 2s).
func NewHub(sendTimeout time.Duration) *Hub {
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Second
	}
	return &Hub{
		subs:        make(map[string]map[*Subscription]struct{}),
		present:     make(map[string]map[string]*presence),
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Subscription receives the messages of one channel until closed.
type Subscription struct {
	C       <-chan Message
	ch      chan Message
	done    chan struct{}
	once    sync.Once
	hub     *Hub
	channel string
}

// Subscribe registers a subscriber with the given buffer size.
func (h *Hub) Subscribe(channel string, buffer int) *Subscription {
	ch := make(chan Message, buffer)
	sub := &Subscription{C: ch, ch: ch, done: make(chan struct{}), hub: h, channel: channel}
	h.mu.Lock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Subscription]struct{})
	}
	h.subs[channel][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Close unregisters the subscription. C is never closed; readers stop on
// their own context.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		h := s.hub
		h.mu.Lock()
		delete(h.subs[s.channel], s)
		if len(h.subs[s.channel]) == 0 {
			delete(h.subs, s.channel)
		}
		h.mu.Unlock()
	})
}

// Broadcast delivers an event to every subscriber of channel and returns
// how many received it.
func (h *Hub) Broadcast(channel, event string, payload any) int {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs[channel]))
	for s := range h.subs[channel] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	msg := Message{Channel: channel, Event: event, Payload: payload}
	sent := 0
	for _, s := range targets {
		// Fast path for buffered subscribers.
		select {
		case s.ch <- msg:
			sent++
			continue
		case <-s.done:
			continue
		default:
		}
		t := time.NewTimer(h.sendTimeout)
		select {
		case s.ch <- msg:
			sent++
		case <-s.done:
		case <-t.C:
			log.Warn().Str("channel", channel).Str("event", event).Msg("realtime: dropped message for slow subscriber")
		}
		t.Stop()
	}
	return sent
}

// Publish forwards a game event to the session channel.
func (h *Hub) Publish(_ context.Context, ev game.Event) {
	h.Broadcast(GameChannel(ev.SessionID), string(ev.Type), ev)
}

// Track marks player present on channel. Each Track needs one Untrack.
func (h *Hub) Track(channel, player string) {
	h.mu.Lock()
	if h.present[channel] == nil {
		h.present[channel] = make(map[string]*presence)
	}
	p, ok := h.present[channel][player]
	if !ok {
		p = &presence{}
		h.present[channel][player] = p
	}
	p.conns++
	p.seen = h.now()
	players := h.presenceLocked(channel)
	h.mu.Unlock()

	if !ok {
		h.Broadcast(channel, EventPresenceSync, PresenceSync{Players: players})
	}
}

// Untrack drops one connection of player from channel.
func (h *Hub) Untrack(channel, player string) {
	h.mu.Lock()
	p, ok := h.present[channel][player]
	left := false
	if ok {
		p.conns--
		if p.conns <= 0 {
			delete(h.present[channel], player)
			left = true
		}
	}
	players := h.presenceLocked(channel)
	if len(h.present[channel]) == 0 {
		delete(h.present, channel)
	}
	h.mu.Unlock()

	if left {
		h.Broadcast(channel, EventPresenceSync, PresenceSync{Players: players})
	}
}

// Touch refreshes player's heartbeat on channel.
func (h *Hub) Touch(channel, player string) {
	h.mu.Lock()
	if p, ok := h.present[channel][player]; ok {
		p.seen = h.now()
	}
	h.mu.Unlock()
}

// Presence returns the ids present on channel in ascending order.
func (h *Hub) Presence(channel string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presenceLocked(channel)
}

func (h *Hub) presenceLocked(channel string) []string {
	out := make([]string, 0, len(h.present[channel]))
	for id := range h.present[channel] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Sweep removes presence entries not touched within ttl and returns how
// many were removed.
func (h *Hub) Sweep(ttl time.Duration) int {
	cutoff := h.now().Add(-ttl)
	changed := map[string][]string{}

	h.mu.Lock()
	removed := 0
	for channel, players := range h.present {
		for id, p := range players {
			if p.seen.Before(cutoff) {
				delete(players, id)
				removed++
				changed[channel] = nil
			}
		}
	}
	for channel := range changed {
		changed[channel] = h.presenceLocked(channel)
		if len(h.present[channel]) == 0 {
			delete(h.present, channel)
		}
	}
	h.mu.Unlock()

	for channel, players := range changed {
		h.Broadcast(channel, EventPresenceSync, PresenceSync{Players: players})
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("realtime: swept stale presence")
	}
	return removed
}
