package website

import (
	"errors"
	"net/http"

	"github.com/forumkit/anonboard/src/config"
	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/identity"
)

// The forum platform in front of us owns real authentication; this service
// only needs to know which forum user a request acts as. Login exchanges a
// profile slug for a session cookie.

type loginBody struct {
	Userslug string `json:"userslug"`
}

func (s *websiteRoutes) Login(c *RequestContext) ResponseData {
	var body loginBody
	if err := c.DecodeBody(&body); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}
	if body.Userslug == "" {
		return c.RejectRequest("userslug is required")
	}

	uid, err := s.identity.ResolveSlugToUID(c, body.Userslug)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return c.ErrorResponse(http.StatusUnauthorized, err)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	session, err := s.identity.CreateSession(c, uid)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var rd ResponseData
	rd.SetCookie(&http.Cookie{
		Name:     identity.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   config.Config.Auth.CookieDomain,
		Expires:  session.ExpiresAt,
		Secure:   config.Config.Auth.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	rd.WriteJson(map[string]any{"uid": uid})
	return rd
}

func (s *websiteRoutes) Logout(c *RequestContext) ResponseData {
	cookie, err := c.Req.Cookie(identity.SessionCookieName)
	if err == nil {
		if err := s.identity.DeleteSession(c, cookie.Value); err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
	}

	var rd ResponseData
	rd.SetCookie(&http.Cookie{
		Name:     identity.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Config.Auth.CookieDomain,
		MaxAge:   -1,
		Secure:   config.Config.Auth.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	rd.WriteJson(map[string]any{"ok": true})
	return rd
}
