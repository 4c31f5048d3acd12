package identity

import (
	"context"
	"errors"
	"time"

	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/jobs"
	"github.com/forumkit/anonboard/src/logging"
	"github.com/forumkit/anonboard/src/models"
	"github.com/forumkit/anonboard/src/oops"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const SessionCookieName = "AnonboardSession"

const sessionDuration = time.Hour * 24 * 14

var ErrNoSession = errors.New("no session found")

// Resolves a session cookie value to the user it belongs to. Returns
// ErrNoSession for unknown or expired sessions.
func (s *PG) UserBySession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := db.QueryOne[models.Session](ctx, s.Conn,
		`
		SELECT $columns
		FROM session
		WHERE id = $1 AND expires_at > $2
		`,
		sessionID, time.Now(),
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, ErrNoSession
		}
		return nil, oops.New(err, "failed to fetch session")
	}

	user, err := s.UserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return user, nil
}

func (s *PG) CreateSession(ctx context.Context, uid int) (*models.Session, error) {
	session := models.Session{
		ID:        uuid.New().String(),
		UserID:    uid,
		ExpiresAt: time.Now().Add(sessionDuration),
	}

	_, err := s.Conn.Exec(ctx,
		`
		INSERT INTO session (id, user_id, expires_at)
		VALUES ($1, $2, $3)
		`,
		session.ID, session.UserID, session.ExpiresAt,
	)
	if err != nil {
		return nil, oops.New(err, "failed to persist session")
	}

	return &session, nil
}

func (s *PG) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.Conn.Exec(ctx,
		`
		DELETE FROM session
		WHERE id = $1
		`,
		sessionID,
	)
	if err != nil {
		return oops.New(err, "failed to delete session")
	}
	return nil
}

func PeriodicallyDeleteExpiredSessions(conn *pgxpool.Pool) *jobs.Job {
	job := jobs.New("delete expired sessions")
	go func() {
		defer job.Finish()
		defer logging.LogPanics(&job.Logger)

		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				_, err := conn.Exec(job.Ctx,
					`
					DELETE FROM session
					WHERE expires_at <= $1
					`,
					time.Now(),
				)
				if err != nil {
					job.Logger.Error().Err(err).Msg("failed to delete expired sessions")
				}
			case <-job.Canceled():
				return
			}
		}
	}()
	return job
}
