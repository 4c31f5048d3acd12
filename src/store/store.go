/*
Package store provides the key-attribute object store that content and
anonymity records live in. Items are hashes of string attributes keyed by
namespaced ids ("topic:<id>", "post:<id>"), in the manner of the schemaless
stores forum platforms tend to grow on. Postgres is just the adapter here;
nothing outside this package speaks SQL for content.
*/
package store

import (
	"context"

	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/oops"
)

type PG struct {
	Conn db.ConnOrTx
}

func NewPG(conn db.ConnOrTx) *PG {
	return &PG{Conn: conn}
}

type fieldValueRow struct {
	Field string `db:"field"`
	Value string `db:"value"`
}

// Fetches all attributes of one object. Returns a nil map (and no error) when
// the object has no stored attributes at all.
func (s *PG) Get(ctx context.Context, key string) (map[string]string, error) {
	rows, err := db.Query[fieldValueRow](ctx, s.Conn,
		`
		SELECT $columns
		FROM object_field
		WHERE key = $1
		`,
		key,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch object %s", key)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	attrs := make(map[string]string, len(rows))
	for _, row := range rows {
		attrs[row.Field] = row.Value
	}
	return attrs, nil
}

type keyedFieldValueRow struct {
	Key   string `db:"key"`
	Field string `db:"field"`
	Value string `db:"value"`
}

// Fetches the attributes of many objects in one round trip. The result is
// aligned with keys; objects with no stored attributes yield a nil map.
func (s *PG) GetBatch(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := db.Query[keyedFieldValueRow](ctx, s.Conn,
		`
		SELECT $columns
		FROM object_field
		WHERE key = ANY ($1)
		`,
		keys,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch objects")
	}

	byKey := make(map[string]map[string]string)
	for _, row := range rows {
		if byKey[row.Key] == nil {
			byKey[row.Key] = make(map[string]string)
		}
		byKey[row.Key][row.Field] = row.Value
	}

	result := make([]map[string]string, len(keys))
	for i, key := range keys {
		result[i] = byKey[key]
	}
	return result, nil
}

func (s *PG) SetField(ctx context.Context, key, field, value string) error {
	_, err := s.Conn.Exec(ctx,
		`
		INSERT INTO object_field (key, field, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (key, field) DO UPDATE SET value = EXCLUDED.value
		`,
		key, field, value,
	)
	if err != nil {
		return oops.New(err, "failed to set field %s on object %s", field, key)
	}
	return nil
}

// Upserts several attributes of one object. Attributes not named are left
// alone, so repeated writes of the same fields are idempotent.
func (s *PG) SetFields(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	var qb db.QueryBuilder
	qb.Add(`INSERT INTO object_field (key, field, value) VALUES`)
	first := true
	for field, value := range fields {
		if first {
			qb.Add(`($?, $?, $?)`, key, field, value)
			first = false
		} else {
			qb.Add(`, ($?, $?, $?)`, key, field, value)
		}
	}
	qb.Add(`ON CONFLICT (key, field) DO UPDATE SET value = EXCLUDED.value`)

	_, err := s.Conn.Exec(ctx, qb.String(), qb.Args()...)
	if err != nil {
		return oops.New(err, "failed to set fields on object %s", key)
	}
	return nil
}

// Writes a whole record onto an object. Same merge-upsert semantics as
// SetFields; the distinction exists because callers mean different things
// ("write this record" vs. "patch these attributes") and the original store
// contract had both.
func (s *PG) SetObject(ctx context.Context, key string, fields map[string]string) error {
	return s.SetFields(ctx, key, fields)
}

func (s *PG) DeleteFields(ctx context.Context, key string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := s.Conn.Exec(ctx,
		`
		DELETE FROM object_field
		WHERE key = $1 AND field = ANY ($2)
		`,
		key, fields,
	)
	if err != nil {
		return oops.New(err, "failed to delete fields from object %s", key)
	}
	return nil
}

// Returns the next value of a named id counter, starting at 1.
func (s *PG) NextID(ctx context.Context, name string) (int, error) {
	id, err := db.QueryOneScalar[int](ctx, s.Conn,
		`
		INSERT INTO id_counter (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = id_counter.value + 1
		RETURNING value
		`,
		name,
	)
	if err != nil {
		return 0, oops.New(err, "failed to advance id counter %s", name)
	}
	return id, nil
}
