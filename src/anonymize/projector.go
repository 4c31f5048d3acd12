package anonymize

import (
	"context"
	"strconv"
	"sync"

	"github.com/forumkit/anonboard/src/logging"
	"github.com/forumkit/anonboard/src/models"
)

/*
Projector is the read half: it resolves anonymity records for outbound views
and decides, per viewer, whether each item passes through, gets the masked
identity, or (for administrators) gets the real identity revealed.

Record and batch lookups are all-or-nothing: if the store cannot answer, the
whole projection fails rather than serving a partially masked view. Reveal
lookups are the one tolerated failure; a vanished author leaves the masked
fallback in place.
*/
type Projector struct {
	Store    ObjectStore
	Identity IdentityService
	Scrubber *Scrubber
}

func NewProjector(store ObjectStore, identity IdentityService) *Projector {
	return &Projector{
		Store:    store,
		Identity: identity,
		Scrubber: NewScrubber(identity),
	}
}

// NewViewer resolves the caller once per request. However many items the
// request projects, the admin check happens here and nowhere else.
func (p *Projector) NewViewer(ctx context.Context, uid int) (Viewer, error) {
	if uid == 0 {
		return Guest, nil
	}
	admin, err := p.Identity.IsAdministrator(ctx, uid)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{UID: uid, Admin: admin}, nil
}

var revealFields = []string{"username", "userslug", "picture", "displayname", "fullname"}

// The anonymity state of one stored item, as needed for projection decisions.
type itemInfo struct {
	rec       models.AnonymityRecord
	storedUID int
}

func infoFromAttrs(attrs map[string]string, fallbackUID int) itemInfo {
	info := itemInfo{rec: RecordFromAttrs(attrs), storedUID: fallbackUID}
	if attrs != nil {
		if uid, err := strconv.Atoi(attrs[attrUID]); err == nil {
			info.storedUID = uid
		}
	}
	return info
}

// The author id a record stands for, falling back to the stored uid for
// legacy items flagged anonymous without a full record.
func effectiveUID(rec models.AnonymityRecord, storedUID int) int {
	if rec.AnonymousUserID != 0 {
		return rec.AnonymousUserID
	}
	return storedUID
}

// masks reports whether this viewer gets the masked identity for an item.
// Admins and the original author do not; everyone else does, whenever either
// the record or the item itself is flagged anonymous.
func (v Viewer) masks(info itemInfo, itemFlag bool) bool {
	if !info.rec.Anonymous && !itemFlag {
		return false
	}
	if v.Admin {
		return false
	}
	return !v.isAuthor(effectiveUID(info.rec, info.storedUID), info.storedUID)
}

/*
ProjectPost projects a single post view for a viewer, including its parent
backreference.
*/
func (p *Projector) ProjectPost(ctx context.Context, v Viewer, post *models.PostView) error {
	attrs, err := p.Store.Get(ctx, PostKey(post.PID))
	if err != nil {
		return err
	}
	return p.projectOne(ctx, v, post, infoFromAttrs(attrs, post.UID), nil)
}

/*
ProjectPosts projects a set of post views with one batch record lookup, plus
one more for any parents outside the set. A failed batch aborts the whole
projection.
*/
func (p *Projector) ProjectPosts(ctx context.Context, v Viewer, posts []*models.PostView) error {
	if len(posts) == 0 {
		return nil
	}

	keys := make([]string, len(posts))
	for i, post := range posts {
		keys[i] = PostKey(post.PID)
	}
	attrsList, err := p.Store.GetBatch(ctx, keys)
	if err != nil {
		return err
	}

	infos := make(map[int]itemInfo, len(posts))
	for i, post := range posts {
		infos[post.PID] = infoFromAttrs(attrsList[i], post.UID)
	}

	var missingKeys []string
	var missingPIDs []int
	for _, post := range posts {
		pid := parsePID(post.ToPID)
		if pid == 0 {
			continue
		}
		if _, ok := infos[pid]; ok {
			continue
		}
		infos[pid] = itemInfo{}
		missingKeys = append(missingKeys, PostKey(pid))
		missingPIDs = append(missingPIDs, pid)
	}
	if len(missingKeys) > 0 {
		parentAttrs, err := p.Store.GetBatch(ctx, missingKeys)
		if err != nil {
			return err
		}
		for i, pid := range missingPIDs {
			infos[pid] = infoFromAttrs(parentAttrs[i], 0)
		}
	}

	for _, post := range posts {
		var parent *itemInfo
		if pid := parsePID(post.ToPID); pid != 0 {
			info := infos[pid]
			parent = &info
		}
		if err := p.projectOne(ctx, v, post, infos[post.PID], parent); err != nil {
			return err
		}
	}
	return nil
}

/*
ProjectTopic projects a topic view and all of its nested posts. The topic
header follows the same decision rule as a post; the nested posts go through
the batch path.
*/
func (p *Projector) ProjectTopic(ctx context.Context, v Viewer, topic *models.TopicView) error {
	attrs, err := p.Store.Get(ctx, TopicKey(topic.TID))
	if err != nil {
		return err
	}
	info := infoFromAttrs(attrs, topic.UID)

	if info.rec.Anonymous || topic.Anonymous.Bool() {
		topic.Anonymous = true
		realUID := effectiveUID(info.rec, info.storedUID)
		switch {
		case v.Admin:
			if author := p.revealAuthor(ctx, realUID); author != nil {
				topic.Author = author
			}
		case v.isAuthor(realUID, info.storedUID):
			// The author keeps their own stored view.
		default:
			masked := models.MaskedIdentity()
			topic.Author = &masked
			topic.UID = 0
		}
	}

	return p.ProjectPosts(ctx, v, topic.Posts)
}

/*
ProjectReplies projects a paginated reply listing. The shared parent's record
is resolved once for the whole page, not once per reply.
*/
func (p *Projector) ProjectReplies(ctx context.Context, v Viewer, page *models.RepliesPage) error {
	parent, infos, err := p.prepareReplies(ctx, page)
	if err != nil {
		return err
	}

	for i, reply := range page.Replies {
		if err := p.projectOne(ctx, v, reply, infos[i], parent); err != nil {
			return err
		}
	}

	p.maskPageParent(v, page, parent)
	return nil
}

/*
ProjectRepliesParallel is ProjectReplies with the per-reply work fanned out
across goroutines, for large pages. Record lookups still happen up front in
one batch; only the projection (including content scrubbing) runs
concurrently. The first error aborts the page.
*/
func (p *Projector) ProjectRepliesParallel(ctx context.Context, v Viewer, page *models.RepliesPage) error {
	parent, infos, err := p.prepareReplies(ctx, page)
	if err != nil {
		return err
	}

	errs := make([]error, len(page.Replies))
	var wg sync.WaitGroup
	for i := range page.Replies {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = p.projectOne(ctx, v, page.Replies[i], infos[i], parent)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	p.maskPageParent(v, page, parent)
	return nil
}

func (p *Projector) prepareReplies(ctx context.Context, page *models.RepliesPage) (*itemInfo, []itemInfo, error) {
	var parent *itemInfo
	if pid := parsePID(page.ToPID); pid != 0 {
		attrs, err := p.Store.Get(ctx, PostKey(pid))
		if err != nil {
			return nil, nil, err
		}
		info := infoFromAttrs(attrs, 0)
		parent = &info
	}

	if len(page.Replies) == 0 {
		return parent, nil, nil
	}

	keys := make([]string, len(page.Replies))
	for i, reply := range page.Replies {
		keys[i] = PostKey(reply.PID)
	}
	attrsList, err := p.Store.GetBatch(ctx, keys)
	if err != nil {
		return nil, nil, err
	}

	infos := make([]itemInfo, len(page.Replies))
	for i, reply := range page.Replies {
		infos[i] = infoFromAttrs(attrsList[i], reply.UID)
	}
	return parent, infos, nil
}

func (p *Projector) maskPageParent(v Viewer, page *models.RepliesPage, parent *itemInfo) {
	if parent != nil && v.masks(*parent, false) {
		page.ToPID = "0"
	}
}

// projectOne applies the decision rule to one post view, then collapses the
// parent backreference if either side is masked for this viewer. A nil parent
// means fetch it on demand.
func (p *Projector) projectOne(ctx context.Context, v Viewer, post *models.PostView, info itemInfo, parent *itemInfo) error {
	ownMasked := v.masks(info, post.Anonymous.Bool())

	if err := p.projectPost(ctx, v, post, info); err != nil {
		return err
	}

	if parsePID(post.ToPID) == 0 {
		return nil
	}
	if parent == nil {
		attrs, err := p.Store.Get(ctx, PostKey(parsePID(post.ToPID)))
		if err != nil {
			return err
		}
		info := infoFromAttrs(attrs, 0)
		parent = &info
	}

	if ownMasked || v.masks(*parent, false) {
		post.ToPID = "0"
		post.Parent = &models.ParentView{
			Username:    models.AnonymousDisplayname,
			Displayname: models.AnonymousDisplayname,
		}
	}
	return nil
}

func (p *Projector) projectPost(ctx context.Context, v Viewer, post *models.PostView, info itemInfo) error {
	// Q&A state never appears on outward post views.
	post.IsQuestion = false
	post.IsSolved = false
	post.SolvedPID = ""

	if !info.rec.Anonymous && !post.Anonymous.Bool() {
		return nil
	}

	post.Anonymous = true
	realUID := effectiveUID(info.rec, info.storedUID)

	switch {
	case v.Admin:
		if author := p.revealAuthor(ctx, realUID); author != nil {
			post.User = author
		}
	case v.isAuthor(realUID, info.storedUID):
		// The author keeps their own stored view.
	default:
		masked := models.MaskedIdentity()
		post.User = &masked
		post.UID = 0
		maskEvents(post.Events, realUID)

		content, err := p.Scrubber.Scrub(ctx, post.Content, realUID)
		if err != nil {
			return err
		}
		post.Content = content
	}
	return nil
}

// revealAuthor resolves the real identity for an administrator. Lookup
// failure is tolerated; the caller keeps whatever identity the view already
// carries.
func (p *Projector) revealAuthor(ctx context.Context, realUID int) *models.Author {
	if realUID == 0 {
		return nil
	}
	fields, err := p.Identity.GetFields(ctx, realUID, revealFields)
	if err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Int("uid", realUID).Msg("could not resolve real author for reveal")
		return nil
	}

	displayname := fields["displayname"]
	if displayname == "" {
		displayname = fields["username"]
	}
	fullname := fields["fullname"]
	if fullname == "" {
		fullname = fields["username"]
	}
	return &models.Author{
		UID:         realUID,
		Username:    fields["username"],
		Userslug:    fields["userslug"],
		Displayname: displayname,
		Fullname:    fullname,
		Picture:     fields["picture"],
	}
}

// parsePID parses an outward string post id. Absent, zero, and malformed all
// mean "no parent".
func parsePID(s string) int {
	if s == "" || s == "0" {
		return 0
	}
	pid, err := strconv.Atoi(s)
	if err != nil || pid < 0 {
		return 0
	}
	return pid
}
