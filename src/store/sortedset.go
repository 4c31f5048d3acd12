package store

import (
	"context"

	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/oops"
)

/*
Sorted sets index content for the listing surfaces: "topics:recent",
"uid:<n>:topics", "uid:<n>:posts", "uid:<n>:best". Members are item ids,
scores are timestamps (or vote counts for "best").
*/

func (s *PG) SortedSetAdd(ctx context.Context, key string, score int64, member string) error {
	_, err := s.Conn.Exec(ctx,
		`
		INSERT INTO sorted_set (key, member, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (key, member) DO UPDATE SET score = EXCLUDED.score
		`,
		key, member, score,
	)
	if err != nil {
		return oops.New(err, "failed to add %s to sorted set %s", member, key)
	}
	return nil
}

// Adjusts a member's score by delta, inserting it at delta if absent, and
// returns the new score.
func (s *PG) SortedSetIncrBy(ctx context.Context, key, member string, delta int64) (int64, error) {
	score, err := db.QueryOneScalar[int64](ctx, s.Conn,
		`
		INSERT INTO sorted_set (key, member, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (key, member) DO UPDATE SET score = sorted_set.score + EXCLUDED.score
		RETURNING score
		`,
		key, member, delta,
	)
	if err != nil {
		return 0, oops.New(err, "failed to increment %s in sorted set %s", member, key)
	}
	return score, nil
}

// Returns members in descending score order, from index start to stop
// inclusive. A stop of -1 means "to the end".
func (s *PG) SortedSetRevRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	var qb db.QueryBuilder
	qb.Add(
		`
		SELECT member
		FROM sorted_set
		WHERE key = $?
		ORDER BY score DESC, member DESC
		`,
		key,
	)
	if stop >= 0 {
		qb.Add(`LIMIT $?`, stop-start+1)
	}
	qb.Add(`OFFSET $?`, start)

	members, err := db.QueryScalar[string](ctx, s.Conn, qb.String(), qb.Args()...)
	if err != nil {
		return nil, oops.New(err, "failed to fetch sorted set %s", key)
	}
	return members, nil
}

func (s *PG) SortedSetCard(ctx context.Context, key string) (int, error) {
	count, err := db.QueryOneScalar[int](ctx, s.Conn,
		`
		SELECT COUNT(*)
		FROM sorted_set
		WHERE key = $1
		`,
		key,
	)
	if err != nil {
		return 0, oops.New(err, "failed to count sorted set %s", key)
	}
	return count, nil
}
