package models

// Data the composer client attaches to a submission. Anonymity may be flagged
// either here or at the top level of the draft; both spellings are accepted.
type ComposerData struct {
	Anonymous Flag `json:"anonymous,omitempty"`
}

// A topic as read back from the object store.
type Topic struct {
	TID     int
	UID     int
	MainPID int
	Title   string

	Anonymous       Flag
	AnonymousUserID int

	IsQuestion Flag
	IsSolved   Flag
	SolvedPID  string

	Timestamp int64
}

// A topic-creation payload as it passes through the create filter, before the
// topic and its main post are persisted.
type TopicDraft struct {
	TID int `json:"tid,omitempty"`
	UID int `json:"-"`

	Title   string `json:"title"`
	Content string `json:"content"`

	Anonymous    Flag          `json:"anonymous,omitempty"`
	ComposerData *ComposerData `json:"composerData,omitempty"`

	IsQuestion Flag   `json:"isQuestion,omitempty"`
	IsSolved   Flag   `json:"isSolved,omitempty"`
	SolvedPID  string `json:"solvedPid,omitempty"`
}

// The anonymity flag may arrive at the top level or nested in composerData.
func (d *TopicDraft) CombinedAnonymous() bool {
	if d.Anonymous.Bool() {
		return true
	}
	return d.ComposerData != nil && d.ComposerData.Anonymous.Bool()
}
