package game

import "time"

// EventType names a live update emitted by the guess pipeline.
type EventType string

const (
	EventGuessRecorded      EventType = "guess_recorded"
	EventParticipantUpdated EventType = "participant_updated"
	EventPlayerJoined       EventType = "player_joined"
	EventSessionCompleted   EventType = "session_completed"
)

// Event is one entry of a session's live update stream.
// Guess text is never carried; opponents only see marks.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	PlayerID  string    `json:"playerId,omitempty"`
	Attempt   int       `json:"attempt,omitempty"`
	Result    []Mark    `json:"result,omitempty"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	Status    Status    `json:"status,omitempty"`
	At        time.Time `json:"at"`
}
