package website

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/forumkit/anonboard/src/anonymize"
	"github.com/forumkit/anonboard/src/models"
)

const maxPostsPerRequest = 100

func (s *websiteRoutes) PostGet(c *RequestContext) ResponseData {
	pid, err := strconv.Atoi(c.PathParams["pid"])
	if err != nil {
		return FourOhFour(c)
	}

	view, err := s.readPostView(c, pid)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	if view == nil {
		return FourOhFour(c)
	}

	if err := s.dispatcher.FirePostsRetrieve(c, c.CurrentUserID(), []*models.PostView{view}); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var rd ResponseData
	rd.WriteJson(view)
	return rd
}

func (s *websiteRoutes) PostsGet(c *RequestContext) ResponseData {
	var pids []int
	for _, part := range strings.Split(c.URL().Query().Get("pids"), ",") {
		if pid, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	if len(pids) == 0 || len(pids) > maxPostsPerRequest {
		return c.RejectRequest("pids must name between 1 and 100 posts")
	}

	views, err := s.readPostViews(c, pids)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if err := s.dispatcher.FirePostsRetrieve(c, c.CurrentUserID(), views); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var rd ResponseData
	rd.WriteJson(struct {
		Posts []*models.PostView `json:"posts"`
	}{Posts: views})
	return rd
}

func (s *websiteRoutes) RepliesGet(c *RequestContext) ResponseData {
	pid, err := strconv.Atoi(c.PathParams["pid"])
	if err != nil {
		return FourOhFour(c)
	}

	parentAttrs, err := s.store.Get(c, anonymize.PostKey(pid))
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	if parentAttrs == nil {
		return FourOhFour(c)
	}

	totalCount, err := s.store.SortedSetCard(c, postRepliesKey(pid))
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	page, numPages, ok := getPageInfo(c.URL().Query().Get("page"), totalCount, repliesPerPage)
	if !ok {
		return FourOhFour(c)
	}

	offset := (page - 1) * repliesPerPage
	members, err := s.store.SortedSetRevRange(c, postRepliesKey(pid), offset, offset+repliesPerPage-1)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	pids := parseIDs(members)
	// RevRange is newest-first; reply pages read oldest-first.
	for i, j := 0, len(pids)-1; i < j; i, j = i+1, j-1 {
		pids[i], pids[j] = pids[j], pids[i]
	}

	replies, err := s.readPostViews(c, pids)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	repliesPage := &models.RepliesPage{
		ToPID:      strconv.Itoa(pid),
		Page:       page,
		PageCount:  numPages,
		TotalCount: totalCount,
		Replies:    replies,
	}

	if err := s.dispatcher.FireRepliesRetrieve(c, c.CurrentUserID(), repliesPage); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var rd ResponseData
	rd.WriteJson(repliesPage)
	return rd
}

/*
ReplySubmit creates a reply in an existing topic. The post id is assigned
before the create filters run, so an anonymous reply takes the immediate
record path; the persisted flush then re-asserts the record.
*/
func (s *websiteRoutes) ReplySubmit(c *RequestContext) ResponseData {
	tid, err := strconv.Atoi(c.PathParams["tid"])
	if err != nil {
		return FourOhFour(c)
	}

	topicAttrs, err := s.store.Get(c, anonymize.TopicKey(tid))
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	if topicAttrs == nil {
		return FourOhFour(c)
	}

	var draft models.PostDraft
	if err := c.DecodeBody(&draft); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}
	var body models.SubmitBody
	if err := c.DecodeBody(&body); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}
	if draft.Content == "" {
		return c.RejectRequest("content is required")
	}

	authorUID := c.CurrentUser.ID
	draft.TID = tid
	draft.UID = authorUID
	draft.IsMain = false

	toPid := 0
	if draft.ToPID != "" && draft.ToPID != "0" {
		toPid, err = strconv.Atoi(draft.ToPID)
		if err != nil || toPid < 0 {
			return c.RejectRequest("toPid must be a post id")
		}
	}

	pid, err := s.store.NextID(c, "posts")
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	draft.PID = pid

	if err := s.dispatcher.FirePostCreate(c, &draft); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	timestamp := time.Now().UnixMilli()
	if err := s.persistPostDraft(c, pid, &draft, timestamp); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	post := &models.Post{
		PID:             pid,
		TID:             tid,
		UID:             draft.UID,
		ToPID:           draft.ToPID,
		Content:         draft.Content,
		Anonymous:       draft.Anonymous,
		AnonymousUserID: draft.AnonymousUserID,
		Timestamp:       timestamp,
	}
	if err := s.dispatcher.FirePostPersisted(c, post, &body); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	indexErr := s.store.SortedSetAdd(c, topicPostsKey(tid), timestamp, strconv.Itoa(pid))
	if indexErr == nil {
		indexErr = s.store.SortedSetAdd(c, userListingKey(authorUID, "posts"), timestamp, strconv.Itoa(pid))
	}
	if indexErr == nil && toPid != 0 {
		indexErr = s.store.SortedSetAdd(c, postRepliesKey(toPid), timestamp, strconv.Itoa(pid))
	}
	if indexErr != nil {
		return c.ErrorResponse(http.StatusInternalServerError, indexErr)
	}

	view, err := s.readPostView(c, pid)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if err := s.dispatcher.FirePostsRetrieve(c, authorUID, []*models.PostView{view}); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	rd := ResponseData{StatusCode: http.StatusCreated}
	rd.WriteJson(view)
	return rd
}

func (s *websiteRoutes) UpvotePost(c *RequestContext) ResponseData {
	pid, err := strconv.Atoi(c.PathParams["pid"])
	if err != nil {
		return FourOhFour(c)
	}

	attrs, err := s.store.Get(c, anonymize.PostKey(pid))
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	if attrs == nil {
		return FourOhFour(c)
	}

	votes, err := s.store.SortedSetIncrBy(c, popularPostsKey(), strconv.Itoa(pid), 1)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	// The "best" listing is keyed by the real author so their own profile
	// still sees anonymous hits; the read path keeps them from everyone else.
	authorUID := attrInt(attrs, "anonymousUserId")
	if authorUID == 0 {
		authorUID = attrInt(attrs, "uid")
	}
	if authorUID != 0 {
		if _, err := s.store.SortedSetIncrBy(c, userListingKey(authorUID, "best"), strconv.Itoa(pid), 1); err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
	}

	if err := s.store.SetField(c, anonymize.PostKey(pid), "votes", strconv.FormatInt(votes, 10)); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var rd ResponseData
	rd.WriteJson(map[string]any{"pid": pid, "votes": votes})
	return rd
}
