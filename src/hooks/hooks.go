/*
Package hooks is the lifecycle dispatch point between the HTTP surface and the
anonymization engine. Handlers register against typed create, persist and
retrieve points for topics and posts, plus a route-pattern-keyed filter that
rewrites outbound JSON response bodies before they are sent.
*/
package hooks

import (
	"context"
	"regexp"

	"github.com/forumkit/anonboard/src/models"
)

type TopicCreateFilter func(ctx context.Context, draft *models.TopicDraft) error
type TopicPersistedAction func(ctx context.Context, topic *models.Topic) error
type PostCreateFilter func(ctx context.Context, draft *models.PostDraft) error
type PostPersistedAction func(ctx context.Context, post *models.Post, body *models.SubmitBody) error

// Retrieve filters run on views headed for a response body and mutate them in
// place. The viewer uid is the session uid, 0 for guests.
type PostsRetrieveFilter func(ctx context.Context, viewerUID int, views []*models.PostView) error
type TopicRetrieveFilter func(ctx context.Context, viewerUID int, view *models.TopicView) error
type RepliesRetrieveFilter func(ctx context.Context, viewerUID int, page *models.RepliesPage) error

// An outbound response in flight. Filters mutate Body in place.
type Response struct {
	Path      string
	ViewerUID int

	// The uid whose public listing is being served, for profile listing
	// routes. Zero elsewhere.
	OwnerUID int

	Body []byte
}

type ResponseFilter func(ctx context.Context, res *Response) error

type registeredResponseFilter struct {
	pattern *regexp.Regexp
	filter  ResponseFilter
}

type Dispatcher struct {
	topicCreate    []TopicCreateFilter
	topicPersisted []TopicPersistedAction
	postCreate     []PostCreateFilter
	postPersisted  []PostPersistedAction

	postsRetrieve   []PostsRetrieveFilter
	topicRetrieve   []TopicRetrieveFilter
	repliesRetrieve []RepliesRetrieveFilter

	responseFilters []registeredResponseFilter
}

func (d *Dispatcher) OnTopicCreate(f TopicCreateFilter) {
	d.topicCreate = append(d.topicCreate, f)
}

func (d *Dispatcher) OnTopicPersisted(f TopicPersistedAction) {
	d.topicPersisted = append(d.topicPersisted, f)
}

func (d *Dispatcher) OnPostCreate(f PostCreateFilter) {
	d.postCreate = append(d.postCreate, f)
}

func (d *Dispatcher) OnPostPersisted(f PostPersistedAction) {
	d.postPersisted = append(d.postPersisted, f)
}

func (d *Dispatcher) OnPostsRetrieve(f PostsRetrieveFilter) {
	d.postsRetrieve = append(d.postsRetrieve, f)
}

func (d *Dispatcher) OnTopicRetrieve(f TopicRetrieveFilter) {
	d.topicRetrieve = append(d.topicRetrieve, f)
}

func (d *Dispatcher) OnRepliesRetrieve(f RepliesRetrieveFilter) {
	d.repliesRetrieve = append(d.repliesRetrieve, f)
}

// Registers a response filter for routes matching pattern. Filters are
// consulted in registration order and only the first match runs, so register
// specific routes before any catch-all.
func (d *Dispatcher) OnResponse(pattern *regexp.Regexp, f ResponseFilter) {
	d.responseFilters = append(d.responseFilters, registeredResponseFilter{pattern, f})
}

// Handlers run in registration order; the first error aborts the chain and
// propagates to the caller.

func (d *Dispatcher) FireTopicCreate(ctx context.Context, draft *models.TopicDraft) error {
	for _, f := range d.topicCreate {
		if err := f(ctx, draft); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) FireTopicPersisted(ctx context.Context, topic *models.Topic) error {
	for _, f := range d.topicPersisted {
		if err := f(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) FirePostCreate(ctx context.Context, draft *models.PostDraft) error {
	for _, f := range d.postCreate {
		if err := f(ctx, draft); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) FirePostPersisted(ctx context.Context, post *models.Post, body *models.SubmitBody) error {
	for _, f := range d.postPersisted {
		if err := f(ctx, post, body); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) FirePostsRetrieve(ctx context.Context, viewerUID int, views []*models.PostView) error {
	for _, f := range d.postsRetrieve {
		if err := f(ctx, viewerUID, views); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) FireTopicRetrieve(ctx context.Context, viewerUID int, view *models.TopicView) error {
	for _, f := range d.topicRetrieve {
		if err := f(ctx, viewerUID, view); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) FireRepliesRetrieve(ctx context.Context, viewerUID int, page *models.RepliesPage) error {
	for _, f := range d.repliesRetrieve {
		if err := f(ctx, viewerUID, page); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) FilterResponse(ctx context.Context, res *Response) error {
	for _, rf := range d.responseFilters {
		if rf.pattern.MatchString(res.Path) {
			return rf.filter(ctx, res)
		}
	}
	return nil
}
