package website

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDispatch(t *testing.T) {
	router := &Router{}
	routes := RouteBuilder{Router: router}

	routes.GET(regexp.MustCompile(`^/api/post/(?P<pid>\d+)$`), func(c *RequestContext) ResponseData {
		var rd ResponseData
		rd.WriteJson(map[string]string{"pid": c.PathParams["pid"]})
		return rd
	})
	routes.POST(regexp.MustCompile(`^/api/topics$`), func(c *RequestContext) ResponseData {
		return ResponseData{StatusCode: http.StatusCreated}
	})
	routes.AnyMethod(regexp.MustCompile(`^`), FourOhFour)

	srv := httptest.NewServer(router)
	defer srv.Close()

	t.Run("path params reach the handler", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/api/post/17")
		require.NoError(t, err)
		defer res.Body.Close()

		body, _ := io.ReadAll(res.Body)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.JSONEq(t, `{"pid":"17"}`, string(body))
	})

	t.Run("method matters", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/api/topics")
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("unknown paths hit the wildcard", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/nope")
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestRequestErrorsAreLogged(t *testing.T) {
	err1 := errors.New("test error 1")
	err2 := errors.New("test error 2")

	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			func(h Handler) Handler {
				return func(c *RequestContext) ResponseData {
					c.Logger = &logger
					res := h(c)
					for _, err := range res.Errors {
						c.Logger.Error().Err(err).Msg("error handling request")
					}
					return res
				}
			},
		},
	}

	routes.GET(regexp.MustCompile(`^/test$`), func(c *RequestContext) ResponseData {
		return c.ErrorResponse(http.StatusInternalServerError, err1, err2)
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/test")
	if assert.Nil(t, err) {
		defer res.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Contains(t, buf.String(), err1.Error())
		assert.Contains(t, buf.String(), err2.Error())
	}
}
