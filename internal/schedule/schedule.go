package schedule

import (
	"math"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
)

// Params holds the tunables for the interval scheduler. The model is
// deliberately simple: exponential backoff while a card keeps being
// easy on first sight, short fixed relearn intervals as soon as it is
// not, and a cumulative struggle score that never decays.
type Params struct {
	BaseIntervalDays float64 // interval for the first easy session
	BackoffFactor    float64 // multiplier per consecutive easy session
	MaxIntervalDays  int     // hard cap on any computed interval
	MaxStreak        int     // cap on the backoff exponent
}

// DefaultParams provides a sensible starting configuration.
func DefaultParams() *Params {
	return &Params{
		BaseIntervalDays: 1,
		BackoffFactor:    1.5,
		MaxIntervalDays:  365,
		MaxStreak:        10,
	}
}

// Struggle increments and relearn intervals per first rating. A worse
// first rating adds more struggle and comes back sooner.
var (
	struggleIncrement = map[domain.Rating]int{domain.Again: 3, domain.Hard: 2, domain.Good: 1}
	relearnDays       = map[domain.Rating]int{domain.Again: 1, domain.Hard: 2, domain.Good: 3}
)

// OnSessionComplete updates a card's long-term scheduling metadata
// once it has left the session queue. The first rating given in the
// session decides the outcome, not the final one: a card that needed
// several attempts before its closing Easy was still struggled with.
func (p *Params) OnSessionComplete(card domain.Card, firstRating domain.Rating, now time.Time) domain.Card {
	if firstRating == domain.Easy {
		card.EaseStreak++
		card.IntervalDays = p.backoffInterval(card.EaseStreak)
	} else {
		card.EaseStreak = 0
		card.StruggleScore += struggleIncrement[firstRating]
		card.IntervalDays = relearnDays[firstRating]
	}

	card.DueDate = dueDate(now, card.IntervalDays)
	card.TotalSessions++
	card.LastSeen = now
	return card
}

// backoffInterval computes base * factor^streak, with the exponent
// capped so a long streak cannot overflow and the result capped at the
// maximum interval.
func (p *Params) backoffInterval(streak int) int {
	exponent := streak
	if exponent > p.MaxStreak {
		exponent = p.MaxStreak
	}

	// Ceil rather than round: the interval must grow strictly with the
	// streak, and rounding can collapse adjacent steps for small values.
	days := int(math.Ceil(p.BaseIntervalDays * math.Pow(p.BackoffFactor, float64(exponent))))
	if days < domain.DefaultIntervalDays {
		days = domain.DefaultIntervalDays
	}
	if days > p.MaxIntervalDays {
		days = p.MaxIntervalDays
	}
	return days
}

// dueDate places the next review at midnight UTC of the target day.
// Scheduling works at day granularity; the time of day a session
// happened to finish should not shift future eligibility.
func dueDate(now time.Time, intervalDays int) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, intervalDays)
}
