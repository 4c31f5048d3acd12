package store

import (
	"context"

	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/oops"
)

// The handful of tables this service owns. Created idempotently at startup;
// there is no migration framework because the schema is deliberately tiny and
// append-only.
var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS object_field (
		key TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (key, field)
	)
	`,
	`
	CREATE TABLE IF NOT EXISTS sorted_set (
		key TEXT NOT NULL,
		member TEXT NOT NULL,
		score BIGINT NOT NULL,
		PRIMARY KEY (key, member)
	)
	`,
	`
	CREATE INDEX IF NOT EXISTS sorted_set_key_score ON sorted_set (key, score DESC)
	`,
	`
	CREATE TABLE IF NOT EXISTS id_counter (
		name TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)
	`,
	`
	CREATE TABLE IF NOT EXISTS forum_user (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL,
		userslug TEXT NOT NULL UNIQUE,
		fullname TEXT NOT NULL DEFAULT '',
		designation TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		picture TEXT NOT NULL DEFAULT '',
		admin BOOLEAN NOT NULL DEFAULT FALSE
	)
	`,
	`
	CREATE TABLE IF NOT EXISTS session (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)
	`,
}

func EnsureSchema(ctx context.Context, conn db.ConnOrTx) error {
	for _, stmt := range schemaStatements {
		_, err := conn.Exec(ctx, stmt)
		if err != nil {
			return oops.New(err, "failed to ensure schema")
		}
	}
	return nil
}
