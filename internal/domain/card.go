package domain

import "time"

// DefaultIntervalDays is the base review interval assigned to cards
// that have never completed a session.
const DefaultIntervalDays = 1

// Card is the durable record for one vocabulary entry: its content and
// the cross-session scheduling metadata that survives between reviews.
type Card struct {
	Key           string
	Term          string
	Definition    string
	Position      int // order of appearance in the source file
	EaseStreak    int
	StruggleScore int
	IntervalDays  int
	DueDate       time.Time
	TotalSessions int
	LastSeen      time.Time // zero value means never reviewed
}

// NewCard creates a card with fresh scheduling metadata: due
// immediately, minimum interval, no history.
func NewCard(key, term, definition string, now time.Time) Card {
	return Card{
		Key:          key,
		Term:         term,
		Definition:   definition,
		IntervalDays: DefaultIntervalDays,
		DueDate:      now,
	}
}

// Due reports whether the card is eligible for a new session at the
// given time.
func (c Card) Due(now time.Time) bool {
	return !c.DueDate.After(now)
}

// SourceRecord is a raw (term, definition) pair as handed over by the
// deck file parser, before identity derivation.
type SourceRecord struct {
	Term       string
	Definition string
}
