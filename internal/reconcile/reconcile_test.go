package reconcile

import (
	"reflect"
	"testing"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
	"github.com/conorfennell/repaso/internal/key"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func records(pairs ...string) []domain.SourceRecord {
	var recs []domain.SourceRecord
	for i := 0; i < len(pairs); i += 2 {
		recs = append(recs, domain.SourceRecord{Term: pairs[i], Definition: pairs[i+1]})
	}
	return recs
}

func TestReconcileNewCards(t *testing.T) {
	merged, skipped := Reconcile(records("el gato", "the cat", "el perro", "the dog"), nil, now)

	if len(skipped) != 0 {
		t.Fatalf("Expected no skipped records, but got %d", len(skipped))
	}
	if len(merged) != 2 {
		t.Fatalf("Expected 2 cards, but got %d", len(merged))
	}

	c := merged[key.Derive("el gato")]
	if c.Term != "el gato" || c.Definition != "the cat" {
		t.Errorf("Expected card content to come from the source, but got {%s, %s}", c.Term, c.Definition)
	}
	if c.EaseStreak != 0 || c.StruggleScore != 0 || c.TotalSessions != 0 {
		t.Error("Expected a new card to have zeroed history")
	}
	if c.IntervalDays != domain.DefaultIntervalDays {
		t.Errorf("Expected new card interval %d, but got %d", domain.DefaultIntervalDays, c.IntervalDays)
	}
	if !c.DueDate.Equal(now) {
		t.Errorf("Expected new card to be due now, but got %v", c.DueDate)
	}
}

func TestReconcileMetadataPreservation(t *testing.T) {
	prev, _ := Reconcile(records("el gato", "the cat"), nil, now.AddDate(0, 0, -30))
	k := key.Derive("el gato")
	seasoned := prev[k]
	seasoned.EaseStreak = 3
	seasoned.StruggleScore = 7
	seasoned.IntervalDays = 12
	seasoned.DueDate = now.AddDate(0, 0, 5)
	seasoned.TotalSessions = 9
	seasoned.LastSeen = now.AddDate(0, 0, -12)
	prev[k] = seasoned

	merged, _ := Reconcile(records("el gato", "the cat"), prev, now)

	got := merged[k]
	if got.EaseStreak != 3 || got.StruggleScore != 7 || got.IntervalDays != 12 ||
		!got.DueDate.Equal(seasoned.DueDate) || got.TotalSessions != 9 || !got.LastSeen.Equal(seasoned.LastSeen) {
		t.Errorf("Expected metadata to be preserved exactly, but got %+v", got)
	}
}

func TestReconcileDefinitionEditKeepsHistory(t *testing.T) {
	prev, _ := Reconcile(records("el gato", "the cat"), nil, now.AddDate(0, 0, -30))
	k := key.Derive("el gato")
	seasoned := prev[k]
	seasoned.StruggleScore = 4
	prev[k] = seasoned

	merged, _ := Reconcile(records("el gato", "the cat (masculine)"), prev, now)

	got, ok := merged[k]
	if !ok {
		t.Fatal("Expected the card to keep its key after a definition edit")
	}
	if got.Definition != "the cat (masculine)" {
		t.Errorf("Expected the definition to be refreshed, but got '%s'", got.Definition)
	}
	if got.StruggleScore != 4 {
		t.Errorf("Expected struggle score 4 to survive the edit, but got %d", got.StruggleScore)
	}
}

func TestReconcileDropsRemovedCards(t *testing.T) {
	prev, _ := Reconcile(records("el gato", "the cat", "el perro", "the dog"), nil, now)

	merged, _ := Reconcile(records("el gato", "the cat"), prev, now)

	if len(merged) != 1 {
		t.Fatalf("Expected 1 card after removal, but got %d", len(merged))
	}
	if _, ok := merged[key.Derive("el perro")]; ok {
		t.Error("Expected the removed card to be absent from the merged snapshot")
	}
}

func TestReconcileIdempotent(t *testing.T) {
	source := records("el gato", "the cat", "el perro", "the dog", "hola", "hello")

	once, _ := Reconcile(source, nil, now)
	twice, _ := Reconcile(source, once, now.AddDate(0, 0, 1))

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Expected reconcile(S, reconcile(S, P)) == reconcile(S, P), but snapshots differ:\n%v\n%v", once, twice)
	}
}

func TestReconcileSkipsMalformedRecords(t *testing.T) {
	source := append(records("el gato", "the cat"),
		domain.SourceRecord{Term: "adios"},
		domain.SourceRecord{Term: "  ", Definition: "blank term"},
	)

	merged, skipped := Reconcile(source, nil, now)

	if len(merged) != 1 {
		t.Fatalf("Expected only the well-formed record to be merged, but got %d cards", len(merged))
	}
	if len(skipped) != 2 {
		t.Fatalf("Expected 2 skipped records, but got %d", len(skipped))
	}
	reasons := map[string]string{}
	for _, s := range skipped {
		reasons[s.Reason] = s.Record.Term
	}
	if _, ok := reasons[ReasonMissingDefinition]; !ok {
		t.Error("Expected a record skipped for a missing definition")
	}
	if _, ok := reasons[ReasonMissingTerm]; !ok {
		t.Error("Expected a record skipped for a missing term")
	}
}

func TestReconcileDuplicateTermsKeepFirst(t *testing.T) {
	source := records("el gato", "the cat", "El Gato", "a different cat")

	merged, _ := Reconcile(source, nil, now)

	if len(merged) != 1 {
		t.Fatalf("Expected duplicates to collapse into 1 card, but got %d", len(merged))
	}
	if got := merged[key.Derive("el gato")].Definition; got != "the cat" {
		t.Errorf("Expected the first occurrence to win, but got definition '%s'", got)
	}
}

func TestReconcilePositionsFollowSourceOrder(t *testing.T) {
	merged, _ := Reconcile(records("el gato", "the cat", "el perro", "the dog"), nil, now)

	if merged[key.Derive("el gato")].Position != 0 || merged[key.Derive("el perro")].Position != 1 {
		t.Error("Expected positions to follow source order")
	}
}
