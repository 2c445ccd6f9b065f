package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
)

// Sentinel errors for the session queue.
// Use errors.Is to check: errors.Is(err, session.ErrInvalidRating)
var (
	ErrInvalidRating = errors.New("session: invalid rating")
	ErrUnknownCard   = errors.New("session: card not in queue")
)

// Config holds the reinsertion offset windows, in queue positions
// ahead of the front. The windows are fixed constants: reinsertion
// distance does not scale with deck size, a queue of 20 and a queue of
// 3000 behave identically. Only the clamp against the remaining queue
// length keeps offsets in range.
type Config struct {
	AgainMin, AgainMax int // rating 1: just behind the front
	HardMin, HardMax   int // rating 2: a little way ahead
	GoodMin, GoodMax   int // rating 3: further ahead
}

// DefaultConfig returns the standard reinsertion windows.
func DefaultConfig() Config {
	return Config{
		AgainMin: 1, AgainMax: 4,
		HardMin: 10, HardMax: 25,
		GoodMin: 20, GoodMax: 40,
	}
}

// Scheduler updates a card's long-term metadata when it completes a
// session. Implemented by schedule.Params.
type Scheduler interface {
	OnSessionComplete(card domain.Card, firstRating domain.Rating, now time.Time) domain.Card
}

// Card wraps a domain card for the duration of one session. It is
// pure in-memory state and is discarded when the session ends; only
// the scheduler's updates to the underlying card survive.
type Card struct {
	domain.Card

	// FirstRating is set exactly once, on the first rating this
	// session, and never overwritten. Zero means not yet rated.
	FirstRating domain.Rating
	// Attempts counts how many times the card has been shown.
	Attempts int

	// target is the nominal queue index of the last reinsertion, used
	// to order cards that land on the same slot.
	target int
}

// Queue is the ordered working set for one review session. A card can
// only leave the queue via an Easy rating; everything else reinserts
// it at a bounded distance from the front.
type Queue struct {
	cards []*Card
	byKey map[string]*Card
	sched Scheduler
	cfg   Config
	rng   *rand.Rand
	now   func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithRand sets the randomness source for reinsertion offsets, so
// scheduling is reproducible under test. Defaults to a time-seeded
// source.
func WithRand(rng *rand.Rand) Option {
	return func(q *Queue) { q.rng = rng }
}

// WithClock overrides the queue's clock.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New builds a session queue from the given deck subset. Initial order
// is by scheduling priority: most overdue first, then higher struggle
// score, then original deck order.
func New(cards []domain.Card, sched Scheduler, cfg Config, opts ...Option) *Queue {
	q := &Queue{
		cards: make([]*Card, 0, len(cards)),
		byKey: make(map[string]*Card, len(cards)),
		sched: sched,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	now := q.now()
	for _, c := range cards {
		sc := &Card{Card: c}
		q.cards = append(q.cards, sc)
		q.byKey[c.Key] = sc
	}
	sort.SliceStable(q.cards, func(i, j int) bool {
		oi := now.Sub(q.cards[i].DueDate)
		oj := now.Sub(q.cards[j].DueDate)
		if oi != oj {
			return oi > oj
		}
		if q.cards[i].StruggleScore != q.cards[j].StruggleScore {
			return q.cards[i].StruggleScore > q.cards[j].StruggleScore
		}
		return q.cards[i].Position < q.cards[j].Position
	})
	return q
}

// Len returns the number of cards still in the session.
func (q *Queue) Len() int {
	return len(q.cards)
}

// Next exposes the head of the queue without removing it. It returns
// false when no cards remain, which is the session's only termination
// condition.
func (q *Queue) Next() (*Card, bool) {
	if len(q.cards) == 0 {
		return nil, false
	}
	return q.cards[0], true
}

// Rate applies a rating to the card with the given key. Ratings 1-3
// keep the card in the session and reinsert it; rating 4 removes it
// permanently and runs the interval scheduler with the card's FIRST
// rating of the session.
//
// The returned card is non-nil only when the session completed the
// card; it carries the updated persisted metadata for the caller to
// store. Errors leave the queue untouched.
func (q *Queue) Rate(cardKey string, rating domain.Rating) (*domain.Card, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	sc, ok := q.byKey[cardKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, cardKey)
	}

	if sc.FirstRating == 0 {
		sc.FirstRating = rating
	}
	sc.Attempts++

	q.remove(sc)

	if rating == domain.Easy {
		delete(q.byKey, cardKey)
		updated := q.sched.OnSessionComplete(sc.Card, sc.FirstRating, q.now())
		return &updated, nil
	}

	q.reinsert(sc, q.offset(rating))
	return nil, nil
}

// offset draws a reinsertion distance for a non-Easy rating from the
// configured window.
func (q *Queue) offset(rating domain.Rating) int {
	var lo, hi int
	switch rating {
	case domain.Again:
		lo, hi = q.cfg.AgainMin, q.cfg.AgainMax
	case domain.Hard:
		lo, hi = q.cfg.HardMin, q.cfg.HardMax
	case domain.Good:
		lo, hi = q.cfg.GoodMin, q.cfg.GoodMax
	}
	if hi <= lo {
		return lo
	}
	return lo + q.rng.Intn(hi-lo+1)
}

// reinsert places a card back into the queue at the given distance
// from the front, clamped to the remaining length so it is never
// scheduled past the end.
func (q *Queue) reinsert(sc *Card, offset int) {
	idx := offset
	if idx > len(q.cards) {
		idx = len(q.cards)
	}
	sc.target = idx

	// Cards that landed on the same nominal slot earlier keep their
	// place if they have priority: more attempts first, then higher
	// struggle score.
	for idx < len(q.cards) && q.cards[idx].target == sc.target && outranks(q.cards[idx], sc) {
		idx++
	}

	q.cards = append(q.cards, nil)
	copy(q.cards[idx+1:], q.cards[idx:])
	q.cards[idx] = sc
}

func outranks(a, b *Card) bool {
	if a.Attempts != b.Attempts {
		return a.Attempts > b.Attempts
	}
	return a.StruggleScore >= b.StruggleScore
}

func (q *Queue) remove(sc *Card) {
	for i, c := range q.cards {
		if c == sc {
			q.cards = append(q.cards[:i], q.cards[i+1:]...)
			return
		}
	}
}
