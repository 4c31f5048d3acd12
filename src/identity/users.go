/*
Package identity is the user-identity collaborator: administrator checks,
profile field lookups, slug resolution, and the session lookup the HTTP
surface needs. It is consumed through small interfaces on the anonymize side
so tests can substitute fakes.
*/
package identity

import (
	"context"
	"errors"

	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/models"
	"github.com/forumkit/anonboard/src/oops"
)

type PG struct {
	Conn db.ConnOrTx
}

func NewPG(conn db.ConnOrTx) *PG {
	return &PG{Conn: conn}
}

func (s *PG) IsAdministrator(ctx context.Context, uid int) (bool, error) {
	if uid == 0 {
		return false, nil
	}

	admin, err := db.QueryOneScalar[bool](ctx, s.Conn,
		`
		SELECT admin
		FROM forum_user
		WHERE id = $1
		`,
		uid,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return false, nil
		}
		return false, oops.New(err, "failed to check administrator status of user %d", uid)
	}
	return admin, nil
}

func (s *PG) UserByID(ctx context.Context, uid int) (*models.User, error) {
	user, err := db.QueryOne[models.User](ctx, s.Conn,
		`
		SELECT $columns
		FROM forum_user
		WHERE id = $1
		`,
		uid,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, db.NotFound
		}
		return nil, oops.New(err, "failed to fetch user %d", uid)
	}
	return user, nil
}

/*
Fetches the named profile fields of a user as a string map. Unknown field
names are simply absent from the result. Returns db.NotFound for a user that
does not exist.
*/
func (s *PG) GetFields(ctx context.Context, uid int, fields []string) (map[string]string, error) {
	user, err := s.UserByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	all := map[string]string{
		"username":    user.Username,
		"userslug":    user.Userslug,
		"picture":     user.Picture,
		"displayname": user.BestName(),
		"fullname":    user.Fullname,
		"designation": user.Designation,
		"location":    user.Location,
	}

	result := make(map[string]string, len(fields))
	for _, field := range fields {
		if v, ok := all[field]; ok {
			result[field] = v
		}
	}
	return result, nil
}

// Resolves a profile slug to a user id. Returns db.NotFound when no user has
// that slug.
func (s *PG) ResolveSlugToUID(ctx context.Context, slug string) (int, error) {
	uid, err := db.QueryOneScalar[int](ctx, s.Conn,
		`
		SELECT id
		FROM forum_user
		WHERE userslug = $1
		`,
		slug,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return 0, db.NotFound
		}
		return 0, oops.New(err, "failed to resolve slug %s", slug)
	}
	return uid, nil
}
