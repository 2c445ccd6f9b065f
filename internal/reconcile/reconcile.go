package reconcile

import (
	"strings"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
	"github.com/conorfennell/repaso/internal/key"
)

// Reasons a source record can be skipped during reconciliation.
const (
	ReasonMissingTerm       = "missing term"
	ReasonMissingDefinition = "missing definition"
)

// Skipped describes a malformed source record that was left out of the
// merged snapshot. Skips are reported, not fatal: the rest of the pass
// still succeeds.
type Skipped struct {
	Record domain.SourceRecord
	Reason string
}

// Reconcile merges freshly parsed source records against a previously
// persisted snapshot.
//
//   - Records whose key exists in prev keep the stored metadata exactly;
//     only the content fields are refreshed from the source.
//   - Records with no stored entry become new cards due immediately.
//   - Stored cards whose key no longer appears in the source are
//     dropped, history included: source content alone drives deck
//     membership.
//
// The result is deterministic and idempotent: reconciling the same
// inputs twice yields an identical snapshot with no field churn.
// Duplicate keys within the source keep the first occurrence.
func Reconcile(records []domain.SourceRecord, prev map[string]domain.Card, now time.Time) (map[string]domain.Card, []Skipped) {
	merged := make(map[string]domain.Card, len(records))
	var skipped []Skipped
	position := 0

	for _, rec := range records {
		term := strings.TrimSpace(rec.Term)
		definition := strings.TrimSpace(rec.Definition)

		if term == "" {
			skipped = append(skipped, Skipped{Record: rec, Reason: ReasonMissingTerm})
			continue
		}
		if definition == "" {
			skipped = append(skipped, Skipped{Record: rec, Reason: ReasonMissingDefinition})
			continue
		}

		k := key.Derive(term)
		if _, dup := merged[k]; dup {
			continue
		}

		if existing, ok := prev[k]; ok {
			// Content fields follow the source; scheduling metadata is
			// untouched. Position counts as content: it is the card's
			// place in the file, not learning history.
			existing.Term = term
			existing.Definition = definition
			existing.Position = position
			merged[k] = existing
			position++
			continue
		}

		fresh := domain.NewCard(k, term, definition, now)
		fresh.Position = position
		merged[k] = fresh
		position++
	}

	return merged, skipped
}
