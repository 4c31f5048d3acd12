package anonymize

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/forumkit/anonboard/src/config"
	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/models"
	"mvdan.cc/xurls/v2"
)

/*
Scrubber removes authorship traces from rendered post content shown to masked
viewers. It rewrites profile links that point at the real author (relative,
forum-prefixed, or absolute on our own host) and deletes avatar markup, so
mentions inside the body cannot undo the identity mask. Links to other users
and to foreign hosts are left alone.
*/
type Scrubber struct {
	Identity IdentityService

	// Host of our own public base URL. Absolute links to any other host are
	// never identity leaks of ours.
	baseHost string
}

func NewScrubber(identity IdentityService) *Scrubber {
	var host string
	if u, err := url.Parse(config.Config.BaseUrl); err == nil {
		host = u.Host
	}
	return &Scrubber{Identity: identity, baseHost: host}
}

const anonymousAnchor = `<a href="/uid/0">anonymous</a>`

var (
	reAvatarSpan = regexp.MustCompile(`(?s)<span\b[^>]*\bclass="[^"]*avatar[^"]*"[^>]*>.*?</span>`)
	reAnchor     = regexp.MustCompile(`(?s)<a\b[^>]*\bhref="([^"]*)"[^>]*>.*?</a>`)
	reAbsURL     = xurls.Strict()

	reUIDPath  = regexp.MustCompile(`^(?:/forum)?/uid/(\d+)/?$`)
	reSlugPath = regexp.MustCompile(`^(?:/forum)?/user/([^/?#]+)/?$`)
)

/*
Scrub rewrites content so no working reference to the author identified by
realUID survives. Identity lookup failures abort the scrub; an unscrubbed
body must never be served to a masked viewer.
*/
func (s *Scrubber) Scrub(ctx context.Context, content string, realUID int) (string, error) {
	if realUID == 0 || content == "" {
		return content, nil
	}

	slug, err := s.authorSlug(ctx, realUID)
	if err != nil {
		return "", err
	}

	content = reAvatarSpan.ReplaceAllString(content, "")

	content = reAnchor.ReplaceAllStringFunc(content, func(anchor string) string {
		href := reAnchor.FindStringSubmatch(anchor)[1]
		if s.pointsAtAuthor(href, realUID, slug) {
			return anonymousAnchor
		}
		return anchor
	})

	// Bare absolute URLs in the text, outside any anchor markup.
	content = reAbsURL.ReplaceAllStringFunc(content, func(raw string) string {
		if s.pointsAtAuthor(raw, realUID, slug) {
			return "/uid/0"
		}
		return raw
	})

	// Leftover relative mentions in plain text. The guard on the preceding
	// character keeps these from rewriting path segments inside absolute URLs,
	// which the pass above already judged.
	reBareUID := regexp.MustCompile(fmt.Sprintf(`(^|[^\w/.:-])((?:/forum)?/uid/%d)\b`, realUID))
	content = reBareUID.ReplaceAllString(content, "$1/uid/0")
	if slug != "" {
		reBareSlug := regexp.MustCompile(`(^|[^\w/.:-])((?:/forum)?/user/` + regexp.QuoteMeta(slug) + `)\b`)
		content = reBareSlug.ReplaceAllString(content, "$1/uid/0")
	}

	return content, nil
}

// The author's profile slug, so /user/<slug> links can be matched without a
// lookup per link. A vanished user simply has no slug to match.
func (s *Scrubber) authorSlug(ctx context.Context, realUID int) (string, error) {
	fields, err := s.Identity.GetFields(ctx, realUID, []string{"userslug"})
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return "", nil
		}
		return "", err
	}
	return fields["userslug"], nil
}

func (s *Scrubber) pointsAtAuthor(href string, realUID int, slug string) bool {
	path := href
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		if s.baseHost != "" && u.Host != s.baseHost {
			return false
		}
		path = u.Path
	}

	if m := reUIDPath.FindStringSubmatch(path); m != nil {
		return m[1] == fmt.Sprint(realUID)
	}
	if m := reSlugPath.FindStringSubmatch(path); m != nil {
		return slug != "" && m[1] == slug
	}
	return false
}

// Masks author references in moderation events on a post.
func maskEvents(events []models.EventView, realUID int) {
	masked := models.MaskedIdentity()
	for i := range events {
		if events[i].UID != 0 && events[i].UID == realUID {
			events[i].UID = 0
			events[i].User = &masked
		}
	}
}
