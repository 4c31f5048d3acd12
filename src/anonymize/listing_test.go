package anonymize

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/forumkit/anonboard/src/hooks"
	"github.com/forumkit/anonboard/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingFixture() (*fakeStore, *fakeIdentity, *Projector) {
	store := newFakeStore()
	identity := newFakeIdentity()
	identity.addUser(42, "alice", "alice", false)
	identity.addUser(7, "bob", "bob", false)
	identity.addUser(99, "mallory", "mallory", true)
	identity.users[42]["designation"] = "Engineer"
	identity.users[42]["location"] = "Berlin"

	anonymousPostFixture(store, 5, 42)
	store.objects[PostKey(6)] = map[string]string{"uid": "42", "content": "public post"}
	store.objects[TopicKey(1)] = map[string]string{
		"uid": "0", "anonymous": "true", "anonymousUserId": "42", "title": "secret",
	}
	store.objects[TopicKey(2)] = map[string]string{"uid": "42", "title": "public"}
	return store, identity, NewProjector(store, identity)
}

func TestProjectListingPrivacy(t *testing.T) {
	ctx := context.Background()
	opts := ListingOptions{FilterOwner: true, Enrich: true}

	items := func() []*ListingItem {
		return []*ListingItem{
			{PID: 5, UID: 0, Anonymous: true},
			{PID: 6, UID: 42},
		}
	}

	t.Run("strangers do not see anonymous items at all", func(t *testing.T) {
		_, _, p := listingFixture()
		got, err := p.ProjectListing(ctx, Viewer{UID: 7}, 42, items(), opts)
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, 6, got[0].PID)
	})

	t.Run("guests do not see anonymous items at all", func(t *testing.T) {
		_, _, p := listingFixture()
		got, err := p.ProjectListing(ctx, Guest, 42, items(), opts)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("the owner sees their own anonymous items", func(t *testing.T) {
		_, _, p := listingFixture()
		got, err := p.ProjectListing(ctx, Viewer{UID: 42}, 42, items(), opts)
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("admins see anonymous items revealed", func(t *testing.T) {
		_, _, p := listingFixture()
		got, err := p.ProjectListing(ctx, Viewer{UID: 99, Admin: true}, 42, items(), opts)
		require.NoError(t, err)

		require.Len(t, got, 2)
		require.NotNil(t, got[0].User)
		assert.Equal(t, "alice", got[0].User.Username)
	})
}

func TestProjectListingEnrichment(t *testing.T) {
	ctx := context.Background()
	_, _, p := listingFixture()

	t.Run("non-anonymous items get profile fields", func(t *testing.T) {
		items := []*ListingItem{{PID: 6, UID: 42}}
		got, err := p.ProjectListing(ctx, Guest, 0, items, ListingOptions{Enrich: true})
		require.NoError(t, err)

		require.NotNil(t, got[0].User)
		assert.Equal(t, "Engineer", got[0].User.Designation)
		assert.Equal(t, "Berlin", got[0].User.Location)
	})

	t.Run("anonymous items get nothing attached", func(t *testing.T) {
		items := []*ListingItem{{PID: 5, UID: 0, Anonymous: true}}
		got, err := p.ProjectListing(ctx, Viewer{UID: 42}, 42, items, ListingOptions{FilterOwner: true, Enrich: true})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Nil(t, got[0].User)
	})

	t.Run("a vanished author is skipped", func(t *testing.T) {
		items := []*ListingItem{{PID: 6, UID: 1000}}
		got, err := p.ProjectListing(ctx, Guest, 0, items, ListingOptions{Enrich: true})
		require.NoError(t, err)
		assert.Nil(t, got[0].User)
	})
}

func TestProjectListingScrubsMaskedContent(t *testing.T) {
	ctx := context.Background()
	_, _, p := listingFixture()

	items := func() []*ListingItem {
		return []*ListingItem{{
			PID:       5,
			UID:       0,
			Anonymous: true,
			Content:   `as I said: <a href="/uid/42">me</a> and <a href="/user/alice">here</a>`,
		}}
	}

	t.Run("masked viewers get scrubbed content", func(t *testing.T) {
		got, err := p.ProjectListing(ctx, Viewer{UID: 7}, 0, items(), ListingOptions{})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.NotContains(t, got[0].Content, "/uid/42")
		assert.NotContains(t, got[0].Content, "/user/alice")
	})

	t.Run("the author keeps their own content untouched", func(t *testing.T) {
		got, err := p.ProjectListing(ctx, Viewer{UID: 42}, 0, items(), ListingOptions{})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Contains(t, got[0].Content, "/uid/42")
	})

	t.Run("admins keep the content untouched", func(t *testing.T) {
		got, err := p.ProjectListing(ctx, Viewer{UID: 99, Admin: true}, 0, items(), ListingOptions{})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Contains(t, got[0].Content, "/uid/42")
	})
}

func TestProjectListingTopicAnonymity(t *testing.T) {
	ctx := context.Background()
	store, _, p := listingFixture()

	// A plain post inside an anonymous topic still counts as anonymous.
	store.objects[PostKey(8)] = map[string]string{"uid": "42", "content": "in secret topic"}
	items := []*ListingItem{{PID: 8, TID: 1, UID: 42}}

	got, err := p.ProjectListing(ctx, Viewer{UID: 7}, 0, items, ListingOptions{})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].UID)
	require.NotNil(t, got[0].User)
	assert.Equal(t, "Anonymous", got[0].User.Username)
}

func TestResponseFilterRegistration(t *testing.T) {
	ctx := context.Background()
	_, _, p := listingFixture()
	r := NewReconciler(p.Store)

	d := &hooks.Dispatcher{}
	Register(d, r, p)

	makeBody := func() []byte {
		body, err := json.Marshal(listingEnvelope{Items: []*ListingItem{
			{PID: 5, UID: 0, Anonymous: true},
			{PID: 6, UID: 42},
		}})
		require.NoError(t, err)
		return body
	}

	t.Run("profile listings drop anonymous items for strangers", func(t *testing.T) {
		res := &hooks.Response{
			Path:      "/api/user/alice/posts",
			ViewerUID: 7,
			OwnerUID:  42,
			Body:      makeBody(),
		}
		require.NoError(t, d.FilterResponse(ctx, res))

		var envelope listingEnvelope
		require.NoError(t, json.Unmarshal(res.Body, &envelope))
		require.Len(t, envelope.Items, 1)
		assert.Equal(t, 6, envelope.Items[0].PID)
	})

	t.Run("the catch-all masks but keeps anonymous items", func(t *testing.T) {
		res := &hooks.Response{
			Path:      "/api/popular",
			ViewerUID: 7,
			Body:      makeBody(),
		}
		require.NoError(t, d.FilterResponse(ctx, res))

		var envelope listingEnvelope
		require.NoError(t, json.Unmarshal(res.Body, &envelope))
		require.Len(t, envelope.Items, 2)
		require.NotNil(t, envelope.Items[0].User)
		assert.Equal(t, "Anonymous", envelope.Items[0].User.Username)
	})

	t.Run("non-listing bodies pass through untouched", func(t *testing.T) {
		body := []byte(`{"pid":5,"content":"hi"}`)
		res := &hooks.Response{Path: "/api/post/5", ViewerUID: 7, Body: body}
		require.NoError(t, d.FilterResponse(ctx, res))
		assert.Equal(t, body, res.Body)
	})
}

func TestRetrieveFilterRegistration(t *testing.T) {
	ctx := context.Background()
	_, _, p := listingFixture()
	r := NewReconciler(p.Store)

	d := &hooks.Dispatcher{}
	Register(d, r, p)

	t.Run("posts retrieve masks for strangers", func(t *testing.T) {
		views := []*models.PostView{{PID: 5, UID: 0, Anonymous: true}}
		require.NoError(t, d.FirePostsRetrieve(ctx, 7, views))

		require.NotNil(t, views[0].User)
		assert.Equal(t, "Anonymous", views[0].User.Username)
	})

	t.Run("posts retrieve reveals for admins", func(t *testing.T) {
		views := []*models.PostView{{PID: 5, UID: 0, Anonymous: true}}
		require.NoError(t, d.FirePostsRetrieve(ctx, 99, views))

		require.NotNil(t, views[0].User)
		assert.Equal(t, "alice", views[0].User.Username)
	})

	t.Run("replies retrieve projects pages of any size", func(t *testing.T) {
		page := &models.RepliesPage{
			ToPID:   "5",
			Replies: []*models.PostView{{PID: 6, UID: 42, ToPID: "5"}},
		}
		require.NoError(t, d.FireRepliesRetrieve(ctx, 7, page))

		// The parent is anonymous to this viewer, so the backreference
		// collapses even on the page envelope.
		assert.Equal(t, "0", page.ToPID)
	})
}
