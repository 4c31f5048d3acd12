package models

// A post as read back from the object store.
type Post struct {
	PID   int
	TID   int
	UID   int
	ToPID string

	Content     string
	Displayname string

	Anonymous       Flag
	AnonymousUserID int

	IsQuestion Flag
	IsSolved   Flag
	SolvedPID  string

	IsMain    bool
	Timestamp int64
}

// A post-creation payload as it passes through the create filter. The post id
// may not be assigned yet; in that case the reconciler stages a PendingRecord
// on the draft for the persisted-flush phase to commit.
type PostDraft struct {
	PID   int    `json:"pid,omitempty"`
	TID   int    `json:"tid,omitempty"`
	UID   int    `json:"-"`
	ToPID string `json:"toPid,omitempty"`

	Content string `json:"content"`

	Anonymous    Flag          `json:"anonymous,omitempty"`
	ComposerData *ComposerData `json:"composerData,omitempty"`

	AnonymousUserID int    `json:"-"`
	Displayname     string `json:"-"`

	IsQuestion Flag   `json:"isQuestion,omitempty"`
	IsSolved   Flag   `json:"isSolved,omitempty"`
	SolvedPID  string `json:"solvedPid,omitempty"`

	IsMain bool `json:"-"`

	Pending *PendingRecord `json:"-"`
}

func (d *PostDraft) CombinedAnonymous() bool {
	if d.Anonymous.Bool() {
		return true
	}
	return d.ComposerData != nil && d.ComposerData.Anonymous.Bool()
}
