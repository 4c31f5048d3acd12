package anonymize

import (
	"context"
	"errors"

	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/models"
)

/*
ListingItem is the shape posts and topics take in listing responses (popular
feeds, profile listings). Either PID or TID is set depending on what the
listing serves; items with both set are posts shown under their topic.
*/
type ListingItem struct {
	PID int `json:"pid,omitempty"`
	TID int `json:"tid,omitempty"`
	UID int `json:"uid"`

	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp"`

	Anonymous models.Flag `json:"anonymous,omitempty"`

	User *models.Author `json:"user,omitempty"`
}

type ListingOptions struct {
	// Drop anonymous items entirely unless the viewer is the listing's owner
	// or an administrator. Used on profile listings, where the listing itself
	// ("posts by alice") would give authorship away.
	FilterOwner bool

	// Attach supplementary profile fields to non-anonymous items.
	Enrich bool
}

var enrichFields = []string{"designation", "location", "fullname"}

/*
ProjectListing applies anonymity to a listing for a viewer and returns the
items that survive. An item counts as anonymous if its own record, its
topic's record, or its inline flag says so; records for both sides resolve in
a single batch.
*/
func (p *Projector) ProjectListing(ctx context.Context, v Viewer, ownerUID int, items []*ListingItem, opts ListingOptions) ([]*ListingItem, error) {
	if len(items) == 0 {
		return items, nil
	}

	var keys []string
	for _, item := range items {
		if item.PID != 0 {
			keys = append(keys, PostKey(item.PID))
		}
		if item.TID != 0 {
			keys = append(keys, TopicKey(item.TID))
		}
	}
	attrsList, err := p.Store.GetBatch(ctx, keys)
	if err != nil {
		return nil, err
	}
	attrsByKey := make(map[string]map[string]string, len(keys))
	for i, key := range keys {
		attrsByKey[key] = attrsList[i]
	}

	result := make([]*ListingItem, 0, len(items))
	for _, item := range items {
		info, topicAnon := listingInfo(item, attrsByKey)

		if !info.rec.Anonymous && !topicAnon && !item.Anonymous.Bool() {
			if opts.Enrich {
				if err := p.enrich(ctx, item); err != nil {
					return nil, err
				}
			}
			result = append(result, item)
			continue
		}

		if opts.FilterOwner && !v.Admin && v.UID != ownerUID {
			continue
		}

		item.Anonymous = true
		realUID := effectiveUID(info.rec, info.storedUID)
		switch {
		case v.Admin:
			if author := p.revealAuthor(ctx, realUID); author != nil {
				item.User = author
			}
		case v.isAuthor(realUID, info.storedUID):
			// The author keeps their own stored view.
		default:
			masked := models.MaskedIdentity()
			item.User = &masked
			item.UID = 0

			content, err := p.Scrubber.Scrub(ctx, item.Content, realUID)
			if err != nil {
				return nil, err
			}
			item.Content = content
		}
		result = append(result, item)
	}
	return result, nil
}

// The anonymity state of one listing item: its own record, with the topic's
// anonymity folded in for post items.
func listingInfo(item *ListingItem, attrsByKey map[string]map[string]string) (itemInfo, bool) {
	var info itemInfo
	if item.PID != 0 {
		info = infoFromAttrs(attrsByKey[PostKey(item.PID)], item.UID)
	} else {
		info = infoFromAttrs(attrsByKey[TopicKey(item.TID)], item.UID)
	}

	topicAnon := false
	if item.PID != 0 && item.TID != 0 {
		topicRec := RecordFromAttrs(attrsByKey[TopicKey(item.TID)])
		if topicRec.Anonymous {
			topicAnon = true
			if info.rec.AnonymousUserID == 0 {
				info.rec.AnonymousUserID = topicRec.AnonymousUserID
			}
		}
	}
	return info, topicAnon
}

// enrich attaches supplementary profile fields to a non-anonymous item. A
// vanished author is skipped, not an error.
func (p *Projector) enrich(ctx context.Context, item *ListingItem) error {
	if item.UID == 0 {
		return nil
	}
	fields, err := p.Identity.GetFields(ctx, item.UID, enrichFields)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil
		}
		return err
	}

	if item.User == nil {
		item.User = &models.Author{UID: item.UID}
	}
	item.User.Designation = fields["designation"]
	item.User.Location = fields["location"]
	if fullname := fields["fullname"]; fullname != "" {
		item.User.Fullname = fullname
	}
	return nil
}
