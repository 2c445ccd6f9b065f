package storage

const schema = `
-- The 'cards' table is the persisted snapshot of every deck: content
-- plus the cross-session scheduling metadata.
CREATE TABLE IF NOT EXISTS cards (
    key TEXT NOT NULL,
    deck TEXT NOT NULL,
    term TEXT NOT NULL,
    definition TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    ease_streak INTEGER NOT NULL DEFAULT 0,
    struggle_score INTEGER NOT NULL DEFAULT 0,
    interval_days INTEGER NOT NULL DEFAULT 1,
    due_date DATETIME NOT NULL,
    total_sessions INTEGER NOT NULL DEFAULT 0,
    last_seen DATETIME,

    PRIMARY KEY (deck, key)
);

-- The 'sources' table tracks where deck files come from, either a
-- local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);
`
