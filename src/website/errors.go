package website

import (
	"errors"
	"net/http"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type apiError struct {
	Error string `json:"error"`
}

// ErrorResponse produces a JSON error body. The errs are logged by the
// request logger middleware, not shown to the caller; the caller only gets
// the generic status text.
func (c *RequestContext) ErrorResponse(status int, errs ...error) ResponseData {
	res := ResponseData{
		StatusCode: status,
		Errors:     errs,
	}
	res.WriteJson(apiError{Error: http.StatusText(status)})
	return res
}

// RejectRequest is for requests that are well-formed but not allowed, with a
// reason the caller is meant to see.
func (c *RequestContext) RejectRequest(reason string) ResponseData {
	res := ResponseData{
		StatusCode: http.StatusForbidden,
	}
	res.WriteJson(apiError{Error: reason})
	return res
}

func FourOhFour(c *RequestContext) ResponseData {
	return c.ErrorResponse(http.StatusNotFound)
}
