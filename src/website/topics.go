package website

import (
	"net/http"
	"strconv"
	"time"

	"github.com/forumkit/anonboard/src/anonymize"
	"github.com/forumkit/anonboard/src/models"
)

func (s *websiteRoutes) TopicGet(c *RequestContext) ResponseData {
	tid, err := strconv.Atoi(c.PathParams["tid"])
	if err != nil {
		return FourOhFour(c)
	}

	view, err := s.readTopicView(c, tid)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	if view == nil {
		return FourOhFour(c)
	}

	if err := s.dispatcher.FireTopicRetrieve(c, c.CurrentUserID(), view); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var rd ResponseData
	rd.WriteJson(view)
	return rd
}

/*
TopicSubmit creates a topic and its main post. The post id is not assigned
until after the create filters run, so an anonymous main post takes the
staged-record path: the record commits once the id exists, and the persisted
flush copies anonymity from the main post up onto the topic.
*/
func (s *websiteRoutes) TopicSubmit(c *RequestContext) ResponseData {
	var draft models.TopicDraft
	if err := c.DecodeBody(&draft); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}
	if draft.Title == "" || draft.Content == "" {
		return c.RejectRequest("title and content are required")
	}

	authorUID := c.CurrentUser.ID
	draft.UID = authorUID

	tid, err := s.store.NextID(c, "topics")
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	draft.TID = tid

	if err := s.dispatcher.FireTopicCreate(c, &draft); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	timestamp := time.Now().UnixMilli()

	mainDraft := &models.PostDraft{
		TID:          tid,
		UID:          authorUID,
		Content:      draft.Content,
		Anonymous:    draft.Anonymous,
		ComposerData: draft.ComposerData,
		IsQuestion:   draft.IsQuestion,
		IsSolved:     draft.IsSolved,
		SolvedPID:    draft.SolvedPID,
		IsMain:       true,
	}
	if err := s.dispatcher.FirePostCreate(c, mainDraft); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	pid, err := s.store.NextID(c, "posts")
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if err := s.persistPostDraft(c, pid, mainDraft, timestamp); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	if err := s.persistTopicDraft(c, &draft, pid, authorUID, timestamp); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if mainDraft.Pending != nil {
		if err := s.reconciler.Commit(c, pid, mainDraft.Pending); err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
	}

	topic := &models.Topic{
		TID:       tid,
		UID:       authorUID,
		MainPID:   pid,
		Title:     draft.Title,
		Timestamp: timestamp,
	}
	if err := s.dispatcher.FireTopicPersisted(c, topic); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	indexErr := s.store.SortedSetAdd(c, topicsRecentKey(), timestamp, strconv.Itoa(tid))
	if indexErr == nil {
		indexErr = s.store.SortedSetAdd(c, topicPostsKey(tid), timestamp, strconv.Itoa(pid))
	}
	if indexErr == nil {
		indexErr = s.store.SortedSetAdd(c, userListingKey(authorUID, "topics"), timestamp, strconv.Itoa(tid))
	}
	if indexErr == nil {
		indexErr = s.store.SortedSetAdd(c, userListingKey(authorUID, "posts"), timestamp, strconv.Itoa(pid))
	}
	if indexErr != nil {
		return c.ErrorResponse(http.StatusInternalServerError, indexErr)
	}

	view, err := s.readTopicView(c, tid)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if err := s.dispatcher.FireTopicRetrieve(c, authorUID, view); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	rd := ResponseData{StatusCode: http.StatusCreated}
	rd.WriteJson(view)
	return rd
}

func (s *websiteRoutes) readTopicView(c *RequestContext, tid int) (*models.TopicView, error) {
	attrs, err := s.store.Get(c, anonymize.TopicKey(tid))
	if err != nil {
		return nil, err
	}
	if attrs == nil {
		return nil, nil
	}

	view := topicViewFromAttrs(tid, attrs)
	if err := s.attachTopicAuthor(c, view); err != nil {
		return nil, err
	}

	members, err := s.store.SortedSetRevRange(c, topicPostsKey(tid), 0, -1)
	if err != nil {
		return nil, err
	}
	pids := parseIDs(members)
	// RevRange is newest-first; topics read oldest-first.
	for i, j := 0, len(pids)-1; i < j; i, j = i+1, j-1 {
		pids[i], pids[j] = pids[j], pids[i]
	}

	view.Posts, err = s.readPostViews(c, pids)
	if err != nil {
		return nil, err
	}
	return view, nil
}
