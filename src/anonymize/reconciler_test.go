package anonymize

import (
	"context"
	"testing"

	"github.com/forumkit/anonboard/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnTopicCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("non-anonymous topics pass through untouched", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		draft := &models.TopicDraft{TID: 1, UID: 42, Title: "hello", IsQuestion: true}
		require.NoError(t, r.OnTopicCreate(ctx, draft))

		assert.False(t, draft.Anonymous.Bool())
		assert.True(t, draft.IsQuestion.Bool())
		assert.Nil(t, store.objects[TopicKey(1)])
	})

	t.Run("anonymous non-question strips the question fields", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		draft := &models.TopicDraft{
			TID: 1, UID: 42,
			Anonymous: true,
			IsSolved:  true, SolvedPID: "7",
		}
		require.NoError(t, r.OnTopicCreate(ctx, draft))

		assert.True(t, draft.Anonymous.Bool())
		assert.False(t, draft.IsQuestion.Bool())
		assert.False(t, draft.IsSolved.Bool())
		assert.Equal(t, "", draft.SolvedPID)
		assert.Equal(t, "true", store.objects[TopicKey(1)]["anonymous"])
	})

	t.Run("anonymous question persists the question fields", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		draft := &models.TopicDraft{TID: 1, UID: 42, Anonymous: true, IsQuestion: true}
		require.NoError(t, r.OnTopicCreate(ctx, draft))

		assert.True(t, draft.IsQuestion.Bool())
		assert.Equal(t, "1", store.objects[TopicKey(1)]["isQuestion"])
		assert.Equal(t, "0", store.objects[TopicKey(1)]["isSolved"])
	})

	t.Run("composerData flag counts too", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		draft := &models.TopicDraft{
			TID: 1, UID: 42,
			ComposerData: &models.ComposerData{Anonymous: true},
		}
		require.NoError(t, r.OnTopicCreate(ctx, draft))
		assert.True(t, draft.Anonymous.Bool())
	})
}

func TestOnPostCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned id commits the record immediately", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		draft := &models.PostDraft{PID: 5, TID: 1, UID: 42, Anonymous: true, Content: "hi"}
		require.NoError(t, r.OnPostCreate(ctx, draft))

		assert.Equal(t, 0, draft.UID)
		assert.Equal(t, 42, draft.AnonymousUserID)
		assert.Equal(t, models.AnonymousDisplayname, draft.Displayname)
		assert.Nil(t, draft.Pending)

		attrs := store.objects[PostKey(5)]
		assert.Equal(t, "true", attrs["anonymous"])
		assert.Equal(t, "42", attrs["anonymousUserId"])
		assert.Equal(t, "0", attrs["uid"])
	})

	t.Run("unassigned id stages a pending record", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		draft := &models.PostDraft{TID: 1, UID: 42, Anonymous: true, Content: "hi"}
		require.NoError(t, r.OnPostCreate(ctx, draft))

		assert.Equal(t, 0, draft.UID)
		require.NotNil(t, draft.Pending)
		assert.Equal(t, 42, draft.Pending.Record.AnonymousUserID)
		assert.Empty(t, store.objects)
	})

	t.Run("deferred commit converges with the immediate path", func(t *testing.T) {
		immediate := newFakeStore()
		deferred := newFakeStore()
		ri := NewReconciler(immediate)
		rd := NewReconciler(deferred)

		di := &models.PostDraft{PID: 5, TID: 1, UID: 42, Anonymous: true, IsQuestion: true}
		require.NoError(t, ri.OnPostCreate(ctx, di))

		dd := &models.PostDraft{TID: 1, UID: 42, Anonymous: true, IsQuestion: true}
		require.NoError(t, rd.OnPostCreate(ctx, dd))
		require.NotNil(t, dd.Pending)
		require.NoError(t, rd.Commit(ctx, 5, dd.Pending))

		assert.Equal(t, immediate.objects[PostKey(5)], deferred.objects[PostKey(5)])
	})

	t.Run("anonymous non-question deletes stored question fields", func(t *testing.T) {
		store := newFakeStore()
		store.objects[PostKey(5)] = map[string]string{
			"isQuestion": "1", "isSolved": "0", "solvedPid": "9",
		}
		r := NewReconciler(store)

		draft := &models.PostDraft{PID: 5, TID: 1, UID: 42, Anonymous: true}
		require.NoError(t, r.OnPostCreate(ctx, draft))

		attrs := store.objects[PostKey(5)]
		assert.NotContains(t, attrs, "isQuestion")
		assert.NotContains(t, attrs, "isSolved")
		assert.NotContains(t, attrs, "solvedPid")
	})

	t.Run("commit is idempotent", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		draft := &models.PostDraft{PID: 5, TID: 1, UID: 42, Anonymous: true}
		require.NoError(t, r.OnPostCreate(ctx, draft))
		want := make(map[string]string)
		for k, v := range store.objects[PostKey(5)] {
			want[k] = v
		}

		pending := &models.PendingRecord{Record: models.AnonymityRecord{
			Anonymous: true, AnonymousUserID: 42, Displayname: models.AnonymousDisplayname,
		}}
		require.NoError(t, r.Commit(ctx, 5, pending))
		assert.Equal(t, want, store.objects[PostKey(5)])
	})
}

func TestOnPostPersisted(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous body commits a deferred record", func(t *testing.T) {
		store := newFakeStore()
		r := NewReconciler(store)

		post := &models.Post{PID: 5, TID: 1, UID: 42}
		body := &models.SubmitBody{Anonymous: true}
		require.NoError(t, r.OnPostPersisted(ctx, post, body))

		attrs := store.objects[PostKey(5)]
		assert.Equal(t, "true", attrs["anonymous"])
		assert.Equal(t, "42", attrs["anonymousUserId"])
		assert.Equal(t, 0, post.UID)
		assert.Equal(t, 42, post.AnonymousUserID)
	})

	t.Run("stored record is re-asserted without a body", func(t *testing.T) {
		store := newFakeStore()
		store.objects[PostKey(5)] = map[string]string{
			"anonymous": "true", "anonymousUserId": "42",
		}
		r := NewReconciler(store)

		post := &models.Post{PID: 5, TID: 1, UID: 42}
		require.NoError(t, r.OnPostPersisted(ctx, post, nil))

		attrs := store.objects[PostKey(5)]
		assert.Equal(t, "0", attrs["uid"])
		assert.Equal(t, models.AnonymousDisplayname, attrs["displayname"])
		assert.Equal(t, 0, post.UID)
	})

	t.Run("non-anonymous posts are left alone", func(t *testing.T) {
		store := newFakeStore()
		store.objects[PostKey(5)] = map[string]string{"uid": "42", "content": "hi"}
		r := NewReconciler(store)

		post := &models.Post{PID: 5, TID: 1, UID: 42}
		require.NoError(t, r.OnPostPersisted(ctx, post, &models.SubmitBody{}))

		assert.Equal(t, 42, post.UID)
		assert.NotContains(t, store.objects[PostKey(5)], "anonymous")
	})
}

func TestOnTopicPersisted(t *testing.T) {
	ctx := context.Background()

	t.Run("main post anonymity is copied onto the topic", func(t *testing.T) {
		store := newFakeStore()
		store.objects[PostKey(5)] = map[string]string{
			"anonymous": "true", "anonymousUserId": "42",
			"isQuestion": "1", "isSolved": "0",
		}
		r := NewReconciler(store)

		topic := &models.Topic{TID: 1, UID: 42, MainPID: 5}
		require.NoError(t, r.OnTopicPersisted(ctx, topic))

		assert.True(t, topic.Anonymous.Bool())
		assert.True(t, topic.IsQuestion.Bool())
		assert.Equal(t, "true", store.objects[TopicKey(1)]["anonymous"])
		assert.Equal(t, "1", store.objects[TopicKey(1)]["isQuestion"])
	})

	t.Run("a plain main post changes nothing", func(t *testing.T) {
		store := newFakeStore()
		store.objects[PostKey(5)] = map[string]string{"uid": "42"}
		r := NewReconciler(store)

		topic := &models.Topic{TID: 1, UID: 42, MainPID: 5}
		require.NoError(t, r.OnTopicPersisted(ctx, topic))

		assert.False(t, topic.Anonymous.Bool())
		assert.Nil(t, store.objects[TopicKey(1)])
	})
}
