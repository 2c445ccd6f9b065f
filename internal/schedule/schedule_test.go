package schedule

import (
	"testing"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
)

var now = time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

func newCard() domain.Card {
	return domain.NewCard("k", "el gato", "the cat", now)
}

func TestEasyFirstRatingGrowsInterval(t *testing.T) {
	params := DefaultParams()
	card := newCard()

	card = params.OnSessionComplete(card, domain.Easy, now)

	if card.EaseStreak != 1 {
		t.Errorf("Expected ease streak 1, but got %d", card.EaseStreak)
	}
	if card.IntervalDays <= domain.DefaultIntervalDays {
		t.Errorf("Expected the interval to grow past the base, but got %d", card.IntervalDays)
	}
	if card.TotalSessions != 1 {
		t.Errorf("Expected total sessions 1, but got %d", card.TotalSessions)
	}
	if !card.LastSeen.Equal(now) {
		t.Errorf("Expected last seen to be the session time, but got %v", card.LastSeen)
	}
}

func TestExponentialBackoff(t *testing.T) {
	params := DefaultParams()
	card := newCard()

	var intervals []int
	sessionTime := now
	for i := 0; i < 3; i++ {
		card = params.OnSessionComplete(card, domain.Easy, sessionTime)
		intervals = append(intervals, card.IntervalDays)
		sessionTime = card.DueDate
	}

	for i := 1; i < len(intervals); i++ {
		if intervals[i] <= intervals[i-1] {
			t.Fatalf("Expected intervals to strictly increase, but got %v", intervals)
		}
	}
	if card.EaseStreak != 3 {
		t.Errorf("Expected ease streak 3, but got %d", card.EaseStreak)
	}
}

func TestBackoffCappedAtMaxInterval(t *testing.T) {
	params := DefaultParams()
	card := newCard()
	card.EaseStreak = 30 // far past the exponent cap

	card = params.OnSessionComplete(card, domain.Easy, now)

	if card.IntervalDays > params.MaxIntervalDays {
		t.Errorf("Expected interval capped at %d, but got %d", params.MaxIntervalDays, card.IntervalDays)
	}
}

func TestStruggledSessionResetsStreak(t *testing.T) {
	params := DefaultParams()
	card := newCard()
	card.EaseStreak = 4
	card.IntervalDays = 20

	for _, first := range []domain.Rating{domain.Again, domain.Hard, domain.Good} {
		t.Run(first.String(), func(t *testing.T) {
			got := params.OnSessionComplete(card, first, now)
			if got.EaseStreak != 0 {
				t.Errorf("Expected ease streak reset to 0, but got %d", got.EaseStreak)
			}
			if got.IntervalDays >= card.IntervalDays {
				t.Errorf("Expected a short relearn interval, but got %d", got.IntervalDays)
			}
		})
	}
}

func TestStruggleScoreInverseToFirstRating(t *testing.T) {
	params := DefaultParams()
	card := newCard()

	again := params.OnSessionComplete(card, domain.Again, now)
	hard := params.OnSessionComplete(card, domain.Hard, now)
	good := params.OnSessionComplete(card, domain.Good, now)

	if !(again.StruggleScore > hard.StruggleScore && hard.StruggleScore > good.StruggleScore) {
		t.Errorf("Expected struggle increments to decrease with the rating, but got %d/%d/%d",
			again.StruggleScore, hard.StruggleScore, good.StruggleScore)
	}

	easy := params.OnSessionComplete(card, domain.Easy, now)
	if easy.StruggleScore != card.StruggleScore {
		t.Errorf("Expected an easy session to leave the struggle score alone, but got %d", easy.StruggleScore)
	}
}

func TestStruggleScoreNeverDecays(t *testing.T) {
	params := DefaultParams()
	card := newCard()
	card.StruggleScore = 11

	card = params.OnSessionComplete(card, domain.Easy, now)
	if card.StruggleScore != 11 {
		t.Errorf("Expected struggle score 11 to persist, but got %d", card.StruggleScore)
	}

	card = params.OnSessionComplete(card, domain.Good, now)
	if card.StruggleScore <= 11 {
		t.Errorf("Expected struggle score to only accumulate, but got %d", card.StruggleScore)
	}
}

func TestDueDateAtDayGranularity(t *testing.T) {
	params := DefaultParams()
	card := newCard()

	card = params.OnSessionComplete(card, domain.Good, now)

	if card.DueDate.Hour() != 0 || card.DueDate.Minute() != 0 {
		t.Errorf("Expected due date at midnight UTC, but got %v", card.DueDate)
	}
	wantDay := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, card.IntervalDays)
	if !card.DueDate.Equal(wantDay) {
		t.Errorf("Expected due date %v, but got %v", wantDay, card.DueDate)
	}
}
