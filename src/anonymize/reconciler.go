package anonymize

import (
	"context"

	"github.com/forumkit/anonboard/src/logging"
	"github.com/forumkit/anonboard/src/models"
)

/*
Reconciler is the write half: it rewrites drafts on their way into the store
and commits anonymity records once item ids are known. All of its operations
are idempotent, so a retried or replayed submission converges on the same
stored state.
*/
type Reconciler struct {
	Store ObjectStore
}

func NewReconciler(store ObjectStore) *Reconciler {
	return &Reconciler{Store: store}
}

/*
OnTopicCreate runs in the topic create filter, before the topic or its main
post exist in the store. An anonymous topic gets its flag persisted
immediately against the (pre-assigned) topic id. Q&A flags on an anonymous
topic are either persisted explicitly (when it genuinely is a question, so
the later field strip cannot lose them) or stripped from the draft.
*/
func (r *Reconciler) OnTopicCreate(ctx context.Context, draft *models.TopicDraft) error {
	if !draft.CombinedAnonymous() {
		return nil
	}

	draft.Anonymous = true
	if err := r.Store.SetField(ctx, TopicKey(draft.TID), attrAnonymous, "true"); err != nil {
		return err
	}

	if draft.IsQuestion.Bool() {
		solved := "0"
		if draft.IsSolved.Bool() {
			solved = "1"
		}
		err := r.Store.SetFields(ctx, TopicKey(draft.TID), map[string]string{
			attrIsQuestion: "1",
			attrIsSolved:   solved,
		})
		if err != nil {
			return err
		}
	} else {
		draft.IsQuestion = false
		draft.IsSolved = false
		draft.SolvedPID = ""
	}

	logging.ExtractLogger(ctx).Debug().Int("tid", draft.TID).Msg("marked topic anonymous")
	return nil
}

/*
OnTopicPersisted runs after a topic and its main post have been saved. The
main post is the canonical source: whatever anonymity and Q&A state its
record carries is copied up onto the topic, both in the store and on the
in-flight topic object.
*/
func (r *Reconciler) OnTopicPersisted(ctx context.Context, topic *models.Topic) error {
	if topic == nil || topic.MainPID == 0 {
		return nil
	}

	attrs, err := r.Store.Get(ctx, PostKey(topic.MainPID))
	if err != nil {
		return err
	}
	if attrs == nil {
		return nil
	}

	if models.TruthyAttr(attrs[attrIsQuestion]) {
		solved := attrs[attrIsSolved]
		if solved == "" {
			solved = "0"
		}
		topic.IsQuestion = true
		topic.IsSolved = models.Flag(models.TruthyAttr(solved))
		err := r.Store.SetFields(ctx, TopicKey(topic.TID), map[string]string{
			attrIsQuestion: "1",
			attrIsSolved:   solved,
		})
		if err != nil {
			return err
		}
	}

	if models.TruthyAttr(attrs[attrAnonymous]) {
		topic.Anonymous = true
		if err := r.Store.SetField(ctx, TopicKey(topic.TID), attrAnonymous, "true"); err != nil {
			return err
		}
	}

	return nil
}

/*
OnPostCreate runs in the post create filter. For an anonymous draft it moves
the real author id aside, forces the stored uid to 0, and either commits the
anonymity record right away (id already assigned) or stages it on the draft
for the persisted-flush phase.
*/
func (r *Reconciler) OnPostCreate(ctx context.Context, draft *models.PostDraft) error {
	if !draft.CombinedAnonymous() {
		return nil
	}

	pending := r.Stage(draft)

	if draft.PID != 0 {
		return r.Commit(ctx, draft.PID, pending)
	}

	draft.Pending = pending
	logging.ExtractLogger(ctx).Debug().Int("uid", pending.Record.AnonymousUserID).Msg("staged anonymity record for unassigned post id")
	return nil
}

// Stage rewrites an anonymous draft in place and returns the record to commit
// once the post id is known.
func (r *Reconciler) Stage(draft *models.PostDraft) *models.PendingRecord {
	pending := &models.PendingRecord{
		Record: models.AnonymityRecord{
			Anonymous:       true,
			AnonymousUserID: draft.UID,
			Displayname:     models.AnonymousDisplayname,
		},
		IsQuestion: draft.IsQuestion.Bool(),
		IsSolved:   draft.IsSolved.Bool(),
	}

	draft.Anonymous = true
	draft.AnonymousUserID = draft.UID
	draft.Displayname = models.AnonymousDisplayname
	draft.UID = 0

	if !pending.IsQuestion {
		draft.IsQuestion = false
		draft.IsSolved = false
		draft.SolvedPID = ""
	}

	return pending
}

// Commit writes a staged record against a now-known post id.
func (r *Reconciler) Commit(ctx context.Context, pid int, pending *models.PendingRecord) error {
	key := PostKey(pid)

	if !pending.IsQuestion {
		if err := r.Store.DeleteFields(ctx, key, qaFields); err != nil {
			return err
		}
	}

	fields := RecordAttrs(pending.Record)
	if pending.IsQuestion {
		fields[attrIsQuestion] = "1"
		if pending.IsSolved {
			fields[attrIsSolved] = "1"
		} else {
			fields[attrIsSolved] = "0"
		}
	}
	return r.Store.SetObject(ctx, key, fields)
}

/*
OnPostPersisted runs after a post has been saved, with the submitted request
body in hand. This is the one phase guaranteed to have both the final post id
and the submitted flags, so deferred records commit here. Posts whose stored
attributes already mark them anonymous get their record re-asserted, which
also repairs partially written records.
*/
func (r *Reconciler) OnPostPersisted(ctx context.Context, post *models.Post, body *models.SubmitBody) error {
	if post == nil || post.PID == 0 {
		return nil
	}

	if body != nil && body.Anonymous.Bool() {
		realUID := body.AnonymousUserID
		if realUID == 0 {
			realUID = post.AnonymousUserID
		}
		if realUID == 0 {
			realUID = post.UID
		}
		pending := &models.PendingRecord{
			Record: models.AnonymityRecord{
				Anonymous:       true,
				AnonymousUserID: realUID,
				Displayname:     models.AnonymousDisplayname,
			},
			IsQuestion: body.IsQuestion.Bool(),
			IsSolved:   body.IsSolved.Bool(),
		}
		if err := r.Commit(ctx, post.PID, pending); err != nil {
			return err
		}
		applyRecordToPost(post, pending.Record)
		return nil
	}

	attrs, err := r.Store.Get(ctx, PostKey(post.PID))
	if err != nil {
		return err
	}
	rec := RecordFromAttrs(attrs)
	if !rec.Anonymous {
		return nil
	}

	if err := r.Store.SetObject(ctx, PostKey(post.PID), RecordAttrs(rec)); err != nil {
		return err
	}
	applyRecordToPost(post, rec)
	return nil
}

func applyRecordToPost(post *models.Post, rec models.AnonymityRecord) {
	post.Anonymous = true
	post.AnonymousUserID = rec.AnonymousUserID
	post.Displayname = rec.Displayname
	post.UID = 0
}
