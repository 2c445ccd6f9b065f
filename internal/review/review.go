package review

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
	"github.com/conorfennell/repaso/internal/schedule"
	"github.com/conorfennell/repaso/internal/session"
	"github.com/conorfennell/repaso/internal/storage"
)

// Runner drives one terminal review session over a deck. It is a thin
// adapter: all scheduling decisions live in the session queue and the
// interval scheduler; the runner only prompts, relays ratings, and
// persists completed cards.
type Runner struct {
	DB     *storage.DB
	Params *schedule.Params
	Queue  session.Config
	Rand   *rand.Rand // nil for a time-seeded source
	In     io.Reader
	Out    io.Writer
}

// Run loads the deck, builds a queue from its due cards, and loops
// until the queue is empty or the user quits. Each completed card is
// saved immediately; quitting mid-session persists nothing else.
func (r *Runner) Run(deck string) error {
	now := time.Now()

	snapshot, err := r.DB.LoadDeck(deck)
	if err != nil {
		return fmt.Errorf("loading deck %s: %w", deck, err)
	}
	if len(snapshot) == 0 {
		fmt.Fprintf(r.Out, "Deck %q is empty. Run --sync first.\n", deck)
		return nil
	}

	var due []domain.Card
	for _, c := range snapshot {
		if c.Due(now) {
			due = append(due, c)
		}
	}
	if len(due) == 0 {
		fmt.Fprintf(r.Out, "No cards due in %q. Come back later.\n", deck)
		return nil
	}

	var opts []session.Option
	if r.Rand != nil {
		opts = append(opts, session.WithRand(r.Rand))
	}
	queue := session.New(due, r.Params, r.Queue, opts...)

	fmt.Fprintf(r.Out, "Reviewing %q: %d card(s) due.\n", deck, queue.Len())
	fmt.Fprintln(r.Out, "Rate each card 1=Again 2=Hard 3=Good 4=Easy, 'quit' to stop.")

	in := bufio.NewScanner(r.In)
	reviewed, completed := 0, 0

	for {
		card, ok := queue.Next()
		if !ok {
			break
		}

		fmt.Fprintf(r.Out, "\n[%d left] %s\n", queue.Len(), card.Term)
		fmt.Fprint(r.Out, "Press Enter to reveal...")
		if !in.Scan() {
			break
		}
		fmt.Fprintf(r.Out, "  %s\n", card.Definition)

		rating, quit := r.promptRating(in)
		if quit {
			fmt.Fprintln(r.Out, "\nSession abandoned; unfinished cards were not saved.")
			break
		}

		updated, err := queue.Rate(card.Key, rating)
		if err != nil {
			// Invalid ratings are re-prompted inside promptRating;
			// anything surfacing here is a real fault.
			return err
		}
		reviewed++

		if updated != nil {
			completed++
			if err := r.DB.UpsertCard(deck, *updated); err != nil {
				return fmt.Errorf("saving card %s: %w", updated.Key, err)
			}
			fmt.Fprintf(r.Out, "Done. Next review in %d day(s).\n", updated.IntervalDays)
		} else {
			fmt.Fprintf(r.Out, "Coming back later this session (attempt %d).\n", card.Attempts)
		}
	}

	fmt.Fprintf(r.Out, "\nSession over: %d rating(s), %d card(s) completed.\n", reviewed, completed)
	return r.scanErr(in)
}

// promptRating reads ratings until one is valid or the user quits.
func (r *Runner) promptRating(in *bufio.Scanner) (domain.Rating, bool) {
	for {
		fmt.Fprint(r.Out, "Rating (1-4 or 'quit'): ")
		if !in.Scan() {
			return 0, true
		}
		text := strings.ToLower(strings.TrimSpace(in.Text()))
		if text == "quit" || text == "q" {
			return 0, true
		}
		n, err := strconv.Atoi(text)
		if err != nil || !domain.Rating(n).IsValid() {
			fmt.Fprintln(r.Out, "Please enter a number between 1 and 4, or 'quit'.")
			continue
		}
		return domain.Rating(n), false
	}
}

func (r *Runner) scanErr(in *bufio.Scanner) error {
	if err := in.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
