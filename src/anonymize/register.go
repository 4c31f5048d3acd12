package anonymize

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/forumkit/anonboard/src/hooks"
	"github.com/forumkit/anonboard/src/models"
)

// Route patterns the response filters hang off of. Profile listings carry the
// owner-privacy filter and enrichment; everything else under /api only gets
// the identity mask.
var (
	RouteUserListing = regexp.MustCompile(`^/api/user/[^/]+/(posts|topics|best)$`)
	RouteAPI         = regexp.MustCompile(`^/api/`)
)

// Register wires the engine into the lifecycle dispatcher: the reconciler
// onto the write-path hook points, the projector onto the retrieve points and
// outbound response bodies. Ordering matters for the response filters; the
// profile pattern must land before the catch-all.
func Register(d *hooks.Dispatcher, r *Reconciler, p *Projector) {
	d.OnTopicCreate(r.OnTopicCreate)
	d.OnTopicPersisted(r.OnTopicPersisted)
	d.OnPostCreate(r.OnPostCreate)
	d.OnPostPersisted(r.OnPostPersisted)

	d.OnPostsRetrieve(p.postsRetrieveFilter)
	d.OnTopicRetrieve(p.topicRetrieveFilter)
	d.OnRepliesRetrieve(p.repliesRetrieveFilter)

	d.OnResponse(RouteUserListing, p.listingResponseFilter(ListingOptions{
		FilterOwner: true,
		Enrich:      true,
	}))
	d.OnResponse(RouteAPI, p.listingResponseFilter(ListingOptions{}))
}

func (p *Projector) postsRetrieveFilter(ctx context.Context, viewerUID int, views []*models.PostView) error {
	v, err := p.NewViewer(ctx, viewerUID)
	if err != nil {
		return err
	}
	return p.ProjectPosts(ctx, v, views)
}

func (p *Projector) topicRetrieveFilter(ctx context.Context, viewerUID int, view *models.TopicView) error {
	v, err := p.NewViewer(ctx, viewerUID)
	if err != nil {
		return err
	}
	return p.ProjectTopic(ctx, v, view)
}

// Pages this large get their per-reply projection work fanned out across
// goroutines.
const parallelProjectionThreshold = 8

func (p *Projector) repliesRetrieveFilter(ctx context.Context, viewerUID int, page *models.RepliesPage) error {
	v, err := p.NewViewer(ctx, viewerUID)
	if err != nil {
		return err
	}
	if len(page.Replies) >= parallelProjectionThreshold {
		return p.ProjectRepliesParallel(ctx, v, page)
	}
	return p.ProjectReplies(ctx, v, page)
}

type listingEnvelope struct {
	Items []*ListingItem `json:"items"`
}

// listingResponseFilter rewrites listing response bodies in flight. Bodies
// that do not carry an items array pass through untouched.
func (p *Projector) listingResponseFilter(opts ListingOptions) hooks.ResponseFilter {
	return func(ctx context.Context, res *hooks.Response) error {
		var envelope listingEnvelope
		if err := json.Unmarshal(res.Body, &envelope); err != nil {
			return nil
		}
		if envelope.Items == nil {
			return nil
		}

		v, err := p.NewViewer(ctx, res.ViewerUID)
		if err != nil {
			return err
		}
		items, err := p.ProjectListing(ctx, v, res.OwnerUID, envelope.Items, opts)
		if err != nil {
			return err
		}

		envelope.Items = items
		if envelope.Items == nil {
			envelope.Items = []*ListingItem{}
		}
		body, err := json.Marshal(&envelope)
		if err != nil {
			return err
		}
		res.Body = body
		return nil
	}
}
