package parser

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/repaso/internal/domain"
)

const deckHeaderPrefix = "# "

// Deck is a named group of source records parsed from one file.
// Records keep their file order; the session queue uses it as the
// final tie-break.
type Deck struct {
	Name    string
	Records []domain.SourceRecord
}

type state int

const (
	seekingTerm state = iota
	seekingDefinition
)

// ParseFile reads a deck file from the given path and extracts all
// decks. Records before the first `# name` header belong to a deck
// named after the file.
func ParseFile(path string) ([]Deck, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	base := filepath.Base(path)
	defaultName := strings.TrimSuffix(base, filepath.Ext(base))
	return Parse(file, defaultName)
}

// Parse reads deck files from an io.Reader. The format is
// line-oriented: a term line followed by the next non-blank line as
// its definition, records separated by blank lines. A line starting
// with "# " opens a new named deck.
//
// A trailing term with no definition is emitted with an empty
// Definition; deciding whether to skip it belongs to the reconciler,
// not the parser.
func Parse(r io.Reader, defaultDeck string) ([]Deck, error) {
	scanner := bufio.NewScanner(r)

	var decks []Deck
	current := Deck{Name: defaultDeck}
	currentState := seekingTerm
	var pendingTerm string

	finishDeck := func() {
		if currentState == seekingDefinition {
			current.Records = append(current.Records, domain.SourceRecord{Term: pendingTerm})
		}
		if len(current.Records) > 0 {
			decks = append(decks, current)
		}
		currentState = seekingTerm
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, deckHeaderPrefix) {
			finishDeck()
			current = Deck{Name: strings.TrimSpace(line[len(deckHeaderPrefix):])}
			continue
		}

		if line == "" {
			continue
		}

		switch currentState {
		case seekingTerm:
			pendingTerm = line
			currentState = seekingDefinition
		case seekingDefinition:
			current.Records = append(current.Records, domain.SourceRecord{
				Term:       pendingTerm,
				Definition: line,
			})
			currentState = seekingTerm
		}
	}

	finishDeck()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return decks, nil
}
