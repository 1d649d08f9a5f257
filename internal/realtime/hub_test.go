package realtime

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
)

func recv(t *testing.T, s *Subscription) Message {
	t.Helper()
	select {
	case m := <-s.C:
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestBroadcast(t *testing.T) {
	h := NewHub(50 * time.Millisecond)
	a := h.Subscribe("lobby", 4)
	b := h.Subscribe("lobby", 4)
	other := h.Subscribe("elsewhere", 4)
	defer a.Close()
	defer b.Close()
	defer other.Close()

	if n := h.Broadcast("lobby", "hello", 42); n != 2 {
		t.Fatalf("Broadcast reached %d subscribers, want 2", n)
	}
	for _, s := range []*Subscription{a, b} {
		if m := recv(t, s); m.Event != "hello" || m.Payload != 42 || m.Channel != "lobby" {
			t.Errorf("message = %+v", m)
		}
	}
	select {
	case m := <-other.C:
		t.Errorf("unexpected cross-channel message %+v", m)
	default:
	}
}

func TestBroadcastSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(20 * time.Millisecond)
	slow := h.Subscribe("c", 0)
	defer slow.Close()

	start := time.Now()
	if n := h.Broadcast("c", "x", nil); n != 0 {
		t.Errorf("slow subscriber counted as delivered")
	}
	if time.Since(start) > time.Second {
		t.Error("broadcast blocked on a slow subscriber")
	}
}

func TestClosedSubscriptionStopsReceiving(t *testing.T) {
	h := NewHub(time.Second)
	s := h.Subscribe("c", 1)
	s.Close()
	s.Close()
	if n := h.Broadcast("c", "x", nil); n != 0 {
		t.Errorf("closed subscription received %d", n)
	}
}

func TestPresence(t *testing.T) {
	h := NewHub(time.Second)
	watch := h.Subscribe("mm", 8)
	defer watch.Close()

	h.Track("mm", "zed")
	h.Track("mm", "amy")
	h.Track("mm", "amy") // second connection, no new sync

	if got := h.Presence("mm"); !reflect.DeepEqual(got, []string{"amy", "zed"}) {
		t.Fatalf("Presence = %v", got)
	}
	recv(t, watch)
	last := recv(t, watch)
	if sync, ok := last.Payload.(PresenceSync); !ok || !reflect.DeepEqual(sync.Players, []string{"amy", "zed"}) {
		t.Errorf("presence sync = %+v", last)
	}

	h.Untrack("mm", "amy")
	if got := h.Presence("mm"); len(got) != 2 {
		t.Errorf("amy still has one connection, presence = %v", got)
	}
	h.Untrack("mm", "amy")
	if got := h.Presence("mm"); !reflect.DeepEqual(got, []string{"zed"}) {
		t.Errorf("Presence after untrack = %v", got)
	}
	if m := recv(t, watch); m.Event != EventPresenceSync {
		t.Errorf("expected presence sync on leave, got %+v", m)
	}
}

func TestSweep(t *testing.T) {
	h := NewHub(time.Second)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	h.Track("mm", "old")
	h.Track("mm", "fresh")
	now = now.Add(time.Minute)
	h.Touch("mm", "fresh")

	if n := h.Sweep(30 * time.Second); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if got := h.Presence("mm"); !reflect.DeepEqual(got, []string{"fresh"}) {
		t.Errorf("Presence = %v", got)
	}
}

func TestPublishRoutesToGameChannel(t *testing.T) {
	h := NewHub(time.Second)
	s := h.Subscribe(GameChannel("abc"), 1)
	defer s.Close()

	h.Publish(context.Background(), game.Event{Type: game.EventGuessRecorded, SessionID: "abc", Attempt: 1})
	m := recv(t, s)
	ev, ok := m.Payload.(game.Event)
	if m.Event != string(game.EventGuessRecorded) || !ok || ev.Attempt != 1 {
		t.Errorf("message = %+v", m)
	}
}

func TestSweeperRemovesStalePresence(t *testing.T) {
	h := NewHub(time.Second)
	h.now = func() time.Time { return time.Now().Add(-time.Hour) }
	h.Track("mm", "ghost")
	h.now = time.Now

	sched, err := StartSweeper(h, time.Minute, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sched.Shutdown() }()

	deadline := time.Now().Add(2 * time.Second)
	for len(h.Presence("mm")) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stale presence was not swept")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
