package history

// Schema is the change-history DDL, applied on open.
const Schema = `
CREATE TABLE IF NOT EXISTS changes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	page_url    TEXT NOT NULL,
	button_idx  INTEGER NOT NULL,
	old_text    TEXT NOT NULL,
	new_text    TEXT NOT NULL,
	observed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_changes_url ON changes (page_url, observed_at DESC);
`
