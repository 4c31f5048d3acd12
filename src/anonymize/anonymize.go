/*
Package anonymize implements anonymous authorship on top of the forum's
content store. It has two halves:

  - a write-path reconciler that intercepts topic and post creation, rewrites
    drafts so the stored author is uid 0, and persists an anonymity record on
    the item itself, and
  - a read-path projector that resolves records for outbound views and
    substitutes either the masked identity, the viewer's own identity, or (for
    administrators) the revealed real identity.

Everything here talks to its collaborators through the small interfaces
below so the engine can be exercised against in-memory fakes.
*/
package anonymize

import (
	"context"
	"fmt"
)

// ObjectStore is the key-attribute store content and anonymity records live
// in. Get returns a nil map for an unknown key; GetBatch returns results
// aligned with its keys, nil entries included.
type ObjectStore interface {
	Get(ctx context.Context, key string) (map[string]string, error)
	GetBatch(ctx context.Context, keys []string) ([]map[string]string, error)
	SetField(ctx context.Context, key, field, value string) error
	SetFields(ctx context.Context, key string, fields map[string]string) error
	SetObject(ctx context.Context, key string, fields map[string]string) error
	DeleteFields(ctx context.Context, key string, fields []string) error
}

// IdentityService answers the user-identity questions the engine has:
// privilege checks, profile field lookups for reveal and enrichment, and slug
// resolution for mention scrubbing. Lookups of unknown users return
// db.NotFound.
type IdentityService interface {
	IsAdministrator(ctx context.Context, uid int) (bool, error)
	GetFields(ctx context.Context, uid int, fields []string) (map[string]string, error)
	ResolveSlugToUID(ctx context.Context, slug string) (int, error)
}

func TopicKey(tid int) string {
	return fmt.Sprintf("topic:%d", tid)
}

func PostKey(pid int) string {
	return fmt.Sprintf("post:%d", pid)
}

/*
Viewer is the resolved read-side caller. Admin is checked exactly once per
request, however many items the request projects.
*/
type Viewer struct {
	UID   int
	Admin bool
}

// The guest viewer. Guests are never authors and never administrators.
var Guest = Viewer{}

// isAuthor reports whether the viewer is the item's original author. realUID
// comes from the anonymity record; storedUID is whatever uid the item carries
// (0 once masked, the real uid on legacy items with no record).
func (v Viewer) isAuthor(realUID, storedUID int) bool {
	if v.UID == 0 {
		return false
	}
	if realUID != 0 && v.UID == realUID {
		return true
	}
	return storedUID != 0 && v.UID == storedUID
}
