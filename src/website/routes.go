package website

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/forumkit/anonboard/src/anonymize"
	"github.com/forumkit/anonboard/src/hooks"
	"github.com/forumkit/anonboard/src/identity"
	"github.com/forumkit/anonboard/src/logging"
	"github.com/forumkit/anonboard/src/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

type websiteRoutes struct {
	conn       *pgxpool.Pool
	store      *store.PG
	identity   *identity.PG
	reconciler *anonymize.Reconciler
	projector  *anonymize.Projector
	dispatcher *hooks.Dispatcher
}

func NewWebsiteRoutes(conn *pgxpool.Pool) http.Handler {
	pg := store.NewPG(conn)
	id := identity.NewPG(conn)
	s := &websiteRoutes{
		conn:       conn,
		store:      pg,
		identity:   id,
		reconciler: anonymize.NewReconciler(pg),
		projector:  anonymize.NewProjector(pg, id),
		dispatcher: &hooks.Dispatcher{},
	}
	anonymize.Register(s.dispatcher, s.reconciler, s.projector)

	router := &Router{}
	rb := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			s.trackRequest,
			s.loadSession,
		},
	}

	rb.POST(regexp.MustCompile(`^/api/login$`), s.Login)

	rb.GET(regexp.MustCompile(`^/api/post/(?P<pid>\d+)$`), s.PostGet)
	rb.GET(regexp.MustCompile(`^/api/posts$`), s.PostsGet)
	rb.GET(regexp.MustCompile(`^/api/post/(?P<pid>\d+)/replies$`), s.RepliesGet)
	rb.GET(regexp.MustCompile(`^/api/topic/(?P<tid>\d+)$`), s.TopicGet)
	rb.GET(regexp.MustCompile(`^/api/popular$`), s.PopularGet)
	rb.GET(regexp.MustCompile(`^/api/user/(?P<slug>[^/]+)/(?P<kind>posts|topics|best)$`), s.UserListingGet)

	rb.GET(regexp.MustCompile(`^/ws/composer$`), s.ComposerSocket)

	authed := rb.WithMiddleware(s.needsAuth)
	authed.POST(regexp.MustCompile(`^/api/logout$`), s.Logout)
	authed.POST(regexp.MustCompile(`^/api/topics$`), s.TopicSubmit)
	authed.POST(regexp.MustCompile(`^/api/topics/(?P<tid>\d+)$`), s.ReplySubmit)
	authed.POST(regexp.MustCompile(`^/api/post/(?P<pid>\d+)/upvote$`), s.UpvotePost)

	rb.AnyMethod(regexp.MustCompile(`^`), FourOhFour)

	return router
}

func (s *websiteRoutes) trackRequest(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		start := time.Now()

		c.Conn = s.conn
		logger := logging.With().
			Str("method", c.Req.Method).
			Str("path", c.Req.URL.Path).
			Logger()
		c.Logger = &logger
		c.ctx = logging.AttachLoggerToContext(&logger, c.ctx)

		res := h(c)

		for _, err := range res.Errors {
			logger.Error().Err(err).Msg("error handling request")
		}
		logger.Debug().
			Int("status", res.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("handled request")
		return res
	}
}

func (s *websiteRoutes) loadSession(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		cookie, err := c.Req.Cookie(identity.SessionCookieName)
		if err == nil {
			user, err := s.identity.UserBySession(c, cookie.Value)
			if err == nil {
				c.CurrentUser = user
			} else if !errors.Is(err, identity.ErrNoSession) {
				return c.ErrorResponse(http.StatusInternalServerError, err)
			}
		}
		return h(c)
	}
}

func (s *websiteRoutes) needsAuth(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.CurrentUser == nil {
			return c.ErrorResponse(http.StatusUnauthorized, ErrNotAuthenticated)
		}
		return h(c)
	}
}

// respondFiltered serializes data and runs it through the response filter
// chain before writing it out. All listing surfaces go through here so the
// anonymization filters see every outbound listing body.
func (s *websiteRoutes) respondFiltered(c *RequestContext, ownerUID int, data any) ResponseData {
	body, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}

	res := hooks.Response{
		Path:      c.Req.URL.Path,
		ViewerUID: c.CurrentUserID(),
		OwnerUID:  ownerUID,
		Body:      body,
	}
	if err := s.dispatcher.FilterResponse(c, &res); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var rd ResponseData
	rd.Header().Set("Content-Type", "application/json")
	rd.Write(res.Body)
	return rd
}
