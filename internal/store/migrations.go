package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create invocations",
		SQL: `
			CREATE TABLE invocations (
				id            TEXT PRIMARY KEY,
				action_group  TEXT NOT NULL DEFAULT '',
				function      TEXT NOT NULL DEFAULT '',
				resource_kind TEXT NOT NULL,
				resource      TEXT NOT NULL DEFAULT '',
				region        TEXT NOT NULL DEFAULT '',
				name          TEXT NOT NULL DEFAULT '',
				provisioned   INTEGER NOT NULL DEFAULT 0,
				outcome       TEXT NOT NULL,
				error         TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL
			);

			CREATE INDEX idx_invocations_created ON invocations (created_at);
			CREATE INDEX idx_invocations_outcome ON invocations (outcome);
		`,
	},
	{
		Version: 2,
		Name:    "create chat turns",
		SQL: `
			CREATE TABLE chat_turns (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL DEFAULT '',
				turns       INTEGER NOT NULL,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_chat_turns_session ON chat_turns (session_id, id);
		`,
	},
}
