// Package sqlite contains the SQLite implementation of the persistence gateway.
package sqlite

// schemaSQL is the authoritative schema. Every statement is idempotent.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL,
	login    TEXT NOT NULL,
	identity INTEGER NOT NULL,
	CONSTRAINT users_login_key UNIQUE (login),
	CONSTRAINT users_identity_key UNIQUE (identity)
);

CREATE INDEX IF NOT EXISTS idx_users_identity ON users(identity);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL CHECK (length(title) <= 80),
	description TEXT NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	deleted     INTEGER NOT NULL DEFAULT 0,
	owner       INTEGER NOT NULL REFERENCES users(identity),
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_owner_open ON tasks(owner, completed, deleted);
`

// SchemaSQL returns the schema, for tools that manage the database themselves.
func SchemaSQL() string {
	return schemaSQL
}
