package website

import (
	"errors"
	"strconv"

	"github.com/forumkit/anonboard/src/anonymize"
	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/models"
)

// Attribute plumbing between store hashes and the typed shapes handlers work
// with. Content and anonymity state live on the same hash per item; the
// reconciler owns the anonymity fields, this file owns the rest.

func attrInt(attrs map[string]string, name string) int {
	n, _ := strconv.Atoi(attrs[name])
	return n
}

func attrInt64(attrs map[string]string, name string) int64 {
	n, _ := strconv.ParseInt(attrs[name], 10, 64)
	return n
}

func flagAttr(f models.Flag) string {
	if f.Bool() {
		return "1"
	}
	return "0"
}

func (s *websiteRoutes) persistPostDraft(c *RequestContext, pid int, draft *models.PostDraft, timestamp int64) error {
	fields := map[string]string{
		"tid":       strconv.Itoa(draft.TID),
		"uid":       strconv.Itoa(draft.UID),
		"content":   draft.Content,
		"timestamp": strconv.FormatInt(timestamp, 10),
	}
	if draft.ToPID != "" {
		fields["toPid"] = draft.ToPID
	}
	if draft.IsMain {
		fields["isMain"] = "1"
	}
	if draft.Anonymous.Bool() {
		fields["anonymous"] = "true"
		fields["anonymousUserId"] = strconv.Itoa(draft.AnonymousUserID)
		fields["displayname"] = draft.Displayname
	}
	if draft.IsQuestion.Bool() {
		fields["isQuestion"] = "1"
		fields["isSolved"] = flagAttr(draft.IsSolved)
		if draft.SolvedPID != "" {
			fields["solvedPid"] = draft.SolvedPID
		}
	}
	return s.store.SetFields(c, anonymize.PostKey(pid), fields)
}

func (s *websiteRoutes) persistTopicDraft(c *RequestContext, draft *models.TopicDraft, mainPID int, authorUID int, timestamp int64) error {
	uid := authorUID
	if draft.Anonymous.Bool() {
		uid = 0
	}
	fields := map[string]string{
		"uid":       strconv.Itoa(uid),
		"mainPid":   strconv.Itoa(mainPID),
		"title":     draft.Title,
		"timestamp": strconv.FormatInt(timestamp, 10),
	}
	if draft.Anonymous.Bool() {
		fields["anonymousUserId"] = strconv.Itoa(authorUID)
	}
	return s.store.SetFields(c, anonymize.TopicKey(draft.TID), fields)
}

func postViewFromAttrs(pid int, attrs map[string]string) *models.PostView {
	return &models.PostView{
		PID:       pid,
		TID:       attrInt(attrs, "tid"),
		UID:       attrInt(attrs, "uid"),
		ToPID:     attrs["toPid"],
		Content:   attrs["content"],
		Timestamp: attrInt64(attrs, "timestamp"),

		Anonymous: models.Flag(models.TruthyAttr(attrs["anonymous"])),

		IsQuestion: models.Flag(models.TruthyAttr(attrs["isQuestion"])),
		IsSolved:   models.Flag(models.TruthyAttr(attrs["isSolved"])),
		SolvedPID:  attrs["solvedPid"],
	}
}

func topicViewFromAttrs(tid int, attrs map[string]string) *models.TopicView {
	return &models.TopicView{
		TID:       tid,
		UID:       attrInt(attrs, "uid"),
		MainPID:   attrInt(attrs, "mainPid"),
		Title:     attrs["title"],
		Timestamp: attrInt64(attrs, "timestamp"),

		Anonymous: models.Flag(models.TruthyAttr(attrs["anonymous"])),

		IsQuestion: models.Flag(models.TruthyAttr(attrs["isQuestion"])),
		IsSolved:   models.Flag(models.TruthyAttr(attrs["isSolved"])),
		SolvedPID:  attrs["solvedPid"],
	}
}

// readPostView fetches a post as an outward view, author attached. Returns
// nil (and no error) for an unknown post.
func (s *websiteRoutes) readPostView(c *RequestContext, pid int) (*models.PostView, error) {
	attrs, err := s.store.Get(c, anonymize.PostKey(pid))
	if err != nil {
		return nil, err
	}
	if attrs == nil {
		return nil, nil
	}

	view := postViewFromAttrs(pid, attrs)
	if err := s.attachAuthor(c, view); err != nil {
		return nil, err
	}
	return view, nil
}

// readPostViews fetches several posts in one store round trip. Unknown pids
// are skipped.
func (s *websiteRoutes) readPostViews(c *RequestContext, pids []int) ([]*models.PostView, error) {
	if len(pids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(pids))
	for i, pid := range pids {
		keys[i] = anonymize.PostKey(pid)
	}
	attrsList, err := s.store.GetBatch(c, keys)
	if err != nil {
		return nil, err
	}

	views := make([]*models.PostView, 0, len(pids))
	for i, pid := range pids {
		if attrsList[i] == nil {
			continue
		}
		view := postViewFromAttrs(pid, attrsList[i])
		if err := s.attachAuthor(c, view); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// The stored uid of an anonymous post is already 0, so this only ever
// attaches identities that are safe to show; the projector swaps in the
// masked or revealed identity afterwards where records demand it.
func (s *websiteRoutes) attachAuthor(c *RequestContext, view *models.PostView) error {
	if view.UID == 0 {
		return nil
	}
	user, err := s.identity.UserByID(c, view.UID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil
		}
		return err
	}
	view.User = &models.Author{
		UID:         user.ID,
		Username:    user.Username,
		Userslug:    user.Userslug,
		Displayname: user.BestName(),
		Fullname:    user.Fullname,
		Picture:     user.Picture,
	}
	return nil
}

func (s *websiteRoutes) attachTopicAuthor(c *RequestContext, view *models.TopicView) error {
	if view.UID == 0 {
		return nil
	}
	user, err := s.identity.UserByID(c, view.UID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil
		}
		return err
	}
	view.Author = &models.Author{
		UID:         user.ID,
		Username:    user.Username,
		Userslug:    user.Userslug,
		Displayname: user.BestName(),
		Fullname:    user.Fullname,
		Picture:     user.Picture,
	}
	return nil
}

// Listing index keys.

func topicsRecentKey() string {
	return "topics:recent"
}

func topicPostsKey(tid int) string {
	return "topic:" + strconv.Itoa(tid) + ":posts"
}

func postRepliesKey(pid int) string {
	return "post:" + strconv.Itoa(pid) + ":replies"
}

func popularPostsKey() string {
	return "posts:popular"
}

func userListingKey(uid int, kind string) string {
	return "uid:" + strconv.Itoa(uid) + ":" + kind
}

func parseIDs(members []string) []int {
	ids := make([]int, 0, len(members))
	for _, m := range members {
		if id, err := strconv.Atoi(m); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
