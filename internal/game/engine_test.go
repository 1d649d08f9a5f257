package game

import (
	"errors"
	"reflect"
	"testing"
)

const (
	C = MarkCorrect
	P = MarkPresent
	A = MarkAbsent
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		guess  string
		want   []Mark
	}{
		{"exact match", "CRANE", "CRANE", []Mark{C, C, C, C, C}},
		{"nothing shared", "CRANE", "TOILS", []Mark{A, A, A, A, A}},
		{"duplicates credited once beyond exact", "ABCDE", "AABBE", []Mark{C, A, P, A, C}},
		{"secret count caps present", "SPEED", "ERASE", []Mark{P, A, A, P, P}},
		{"exact preferred over present", "ABBEY", "BBBBB", []Mark{A, C, C, A, A}},
		{"lowercase input is normalized", "apple", "alloy", []Mark{C, P, A, A, A}},
		{"surrounding whitespace ignored", " PLANT ", "plant", []Mark{C, C, C, C, C}},
		{"longer words", "BANANAS", "ANANASB", []Mark{P, P, P, P, P, P, P}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.secret, tt.guess)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.secret, tt.guess, got, tt.want)
			}
		})
	}
}

func TestScoreDuplicateLetterCap(t *testing.T) {
	marks, err := Score("SPEED", "ERASE")
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	credited := 0
	for i, r := range "ERASE" {
		if r == 'E' && marks[i] != MarkAbsent {
			credited++
		}
	}
	if credited > 2 {
		t.Errorf("E credited %d times, secret only has 2", credited)
	}
}

func TestScoreLengthMismatch(t *testing.T) {
	if _, err := Score("CRANE", "CRANES"); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestSolved(t *testing.T) {
	if !Solved([]Mark{C, C, C}) {
		t.Error("all correct should be solved")
	}
	if Solved([]Mark{C, P, C}) {
		t.Error("present tile should not be solved")
	}
	if Solved(nil) {
		t.Error("empty result should not be solved")
	}
}

func TestCheckGuess(t *testing.T) {
	if err := CheckGuess("CRANE", 5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckGuess("CRAN", 5); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
	if err := CheckGuess("CR4NE", 5); !errors.Is(err, ErrInvalidGuess) {
		t.Errorf("expected ErrInvalidGuess, got %v", err)
	}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		history []Outcome
		want    int
	}{
		{[]Outcome{OutcomeWon, OutcomeWon, OutcomeLost, OutcomeWon}, 2},
		{[]Outcome{OutcomeLost, OutcomeWon}, 0},
		{[]Outcome{OutcomeWon, OutcomeDraw, OutcomeWon}, 1},
		{[]Outcome{OutcomeWon, OutcomeWon, OutcomeWon}, 3},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := Streak(tt.history); got != tt.want {
			t.Errorf("Streak(%v) = %d, want %d", tt.history, got, tt.want)
		}
	}
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&PersistenceError{Op: "update outcome", Partial: true, Err: cause})

	if !errors.Is(err, ErrPersistence) {
		t.Error("expected errors.Is(err, ErrPersistence)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be unwrapped")
	}
	if !IsPartial(err) {
		t.Error("expected partial")
	}
	if errors.Is(err, ErrNotActive) {
		t.Error("persistence failure must not look like a validation failure")
	}
}

func TestWaitingForOpponentIsNotActive(t *testing.T) {
	if !errors.Is(ErrWaitingForOpponent, ErrNotActive) {
		t.Error("ErrWaitingForOpponent should wrap ErrNotActive")
	}
}
