package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadDeck retrieves the stored snapshot for a deck as a key->Card
// mapping. A deck that was never saved yields an empty map.
func (db *DB) LoadDeck(deck string) (map[string]domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT key, term, definition, position, ease_streak,
		       struggle_score, interval_days, due_date, total_sessions,
		       last_seen
		FROM cards WHERE deck = ?
	`, deck)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck %s: %w", deck, err)
	}
	defer rows.Close()

	cards := make(map[string]domain.Card)
	for rows.Next() {
		var c domain.Card
		var lastSeen sql.NullTime
		if err := rows.Scan(
			&c.Key,
			&c.Term,
			&c.Definition,
			&c.Position,
			&c.EaseStreak,
			&c.StruggleScore,
			&c.IntervalDays,
			&c.DueDate,
			&c.TotalSessions,
			&lastSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card row for deck %s: %w", deck, err)
		}
		if lastSeen.Valid {
			c.LastSeen = lastSeen.Time
		}
		cards[c.Key] = c
	}
	return cards, rows.Err()
}

// SaveDeck replaces a deck's stored snapshot with the given mapping,
// in one transaction. Cards absent from the mapping are dropped.
func (db *DB) SaveDeck(deck string, cards map[string]domain.Card) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save for deck %s: %w", deck, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards WHERE deck = ?`, deck); err != nil {
		return fmt.Errorf("failed to clear deck %s: %w", deck, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO cards (key, deck, term, definition, position,
		                   ease_streak, struggle_score, interval_days,
		                   due_date, total_sessions, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for deck %s: %w", deck, err)
	}
	defer stmt.Close()

	for _, c := range cards {
		if _, err := stmt.Exec(
			c.Key, deck, c.Term, c.Definition, c.Position,
			c.EaseStreak, c.StruggleScore, c.IntervalDays, c.DueDate,
			c.TotalSessions, nullTime(c.LastSeen),
		); err != nil {
			return fmt.Errorf("failed to insert card %s into deck %s: %w", c.Key, deck, err)
		}
	}

	return tx.Commit()
}

// UpsertCard writes a single card's state. The review loop calls this
// after every completed card so an abandoned session loses nothing.
func (db *DB) UpsertCard(deck string, c domain.Card) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (key, deck, term, definition, position,
		                   ease_streak, struggle_score, interval_days,
		                   due_date, total_sessions, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(deck, key) DO UPDATE SET
			term = excluded.term,
			definition = excluded.definition,
			position = excluded.position,
			ease_streak = excluded.ease_streak,
			struggle_score = excluded.struggle_score,
			interval_days = excluded.interval_days,
			due_date = excluded.due_date,
			total_sessions = excluded.total_sessions,
			last_seen = excluded.last_seen
	`,
		c.Key, deck, c.Term, c.Definition, c.Position,
		c.EaseStreak, c.StruggleScore, c.IntervalDays, c.DueDate,
		c.TotalSessions, nullTime(c.LastSeen),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card %s in deck %s: %w", c.Key, deck, err)
	}
	return nil
}

// ListDecks returns the names of all stored decks.
func (db *DB) ListDecks() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT deck FROM cards ORDER BY deck`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()

	var decks []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan deck row: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// DeckStats summarizes a stored deck for listings.
type DeckStats struct {
	Deck  string
	Total int
	Due   int
}

// Stats returns per-deck card counts, including how many are due at
// the given time.
func (db *DB) Stats(now time.Time) ([]DeckStats, error) {
	rows, err := db.conn.Query(`
		SELECT deck,
		       COUNT(*),
		       SUM(CASE WHEN due_date <= ? THEN 1 ELSE 0 END)
		FROM cards GROUP BY deck ORDER BY deck
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck stats: %w", err)
	}
	defer rows.Close()

	var stats []DeckStats
	for rows.Next() {
		var s DeckStats
		if err := rows.Scan(&s.Deck, &s.Total, &s.Due); err != nil {
			return nil, fmt.Errorf("failed to scan deck stats row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Source represents a deck source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source. Cards already reconciled from it stay
// until a sync pass no longer finds them.
func (db *DB) DeleteSource(id int64) error {
	_, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
