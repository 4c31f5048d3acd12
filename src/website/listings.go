package website

import (
	"errors"
	"net/http"

	"github.com/forumkit/anonboard/src/anonymize"
	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/models"
)

const listingLength = 50

type listingResponse struct {
	Items []*anonymize.ListingItem `json:"items"`
}

// PopularGet serves the most-upvoted posts across the whole forum. The
// response filter chain masks anonymous entries; it does not drop them here,
// because a public feed does not attribute them to anyone.
func (s *websiteRoutes) PopularGet(c *RequestContext) ResponseData {
	members, err := s.store.SortedSetRevRange(c, popularPostsKey(), 0, listingLength-1)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	items, err := s.readPostListing(c, parseIDs(members))
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	return s.respondFiltered(c, 0, listingResponse{Items: items})
}

// UserListingGet serves one user's posts, topics, or best posts. The owner
// uid rides along so the filter chain can apply listing privacy: anonymous
// entries survive only for the owner and administrators.
func (s *websiteRoutes) UserListingGet(c *RequestContext) ResponseData {
	uid, err := s.identity.ResolveSlugToUID(c, c.PathParams["slug"])
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	kind := c.PathParams["kind"]
	members, err := s.store.SortedSetRevRange(c, userListingKey(uid, kind), 0, listingLength-1)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var items []*anonymize.ListingItem
	if kind == "topics" {
		items, err = s.readTopicListing(c, parseIDs(members))
	} else {
		items, err = s.readPostListing(c, parseIDs(members))
	}
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	return s.respondFiltered(c, uid, listingResponse{Items: items})
}

func (s *websiteRoutes) readPostListing(c *RequestContext, pids []int) ([]*anonymize.ListingItem, error) {
	keys := make([]string, len(pids))
	for i, pid := range pids {
		keys[i] = anonymize.PostKey(pid)
	}
	attrsList, err := s.store.GetBatch(c, keys)
	if err != nil {
		return nil, err
	}

	items := make([]*anonymize.ListingItem, 0, len(pids))
	for i, pid := range pids {
		attrs := attrsList[i]
		if attrs == nil {
			continue
		}
		item := &anonymize.ListingItem{
			PID:       pid,
			TID:       attrInt(attrs, "tid"),
			UID:       attrInt(attrs, "uid"),
			Content:   attrs["content"],
			Timestamp: attrInt64(attrs, "timestamp"),
			Anonymous: models.Flag(models.TruthyAttr(attrs["anonymous"])),
		}
		if err := s.attachListingAuthor(c, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *websiteRoutes) readTopicListing(c *RequestContext, tids []int) ([]*anonymize.ListingItem, error) {
	keys := make([]string, len(tids))
	for i, tid := range tids {
		keys[i] = anonymize.TopicKey(tid)
	}
	attrsList, err := s.store.GetBatch(c, keys)
	if err != nil {
		return nil, err
	}

	items := make([]*anonymize.ListingItem, 0, len(tids))
	for i, tid := range tids {
		attrs := attrsList[i]
		if attrs == nil {
			continue
		}
		item := &anonymize.ListingItem{
			TID:       tid,
			UID:       attrInt(attrs, "uid"),
			Title:     attrs["title"],
			Timestamp: attrInt64(attrs, "timestamp"),
			Anonymous: models.Flag(models.TruthyAttr(attrs["anonymous"])),
		}
		if err := s.attachListingAuthor(c, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *websiteRoutes) attachListingAuthor(c *RequestContext, item *anonymize.ListingItem) error {
	if item.UID == 0 {
		return nil
	}
	user, err := s.identity.UserByID(c, item.UID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil
		}
		return err
	}
	item.User = &models.Author{
		UID:         user.ID,
		Username:    user.Username,
		Userslug:    user.Userslug,
		Displayname: user.BestName(),
		Picture:     user.Picture,
	}
	return nil
}
