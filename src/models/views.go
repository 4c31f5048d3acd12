package models

// The outward backreference to the post a reply responds to. When the parent
// is anonymous to the viewer, this collapses to the Anonymous placeholder.
type ParentView struct {
	Username    string `json:"username"`
	Displayname string `json:"displayname"`
}

// A moderation/edit event attached to a post view.
type EventView struct {
	Type      string  `json:"type"`
	UID       int     `json:"uid"`
	User      *Author `json:"user,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// The outward-facing shape of a post, as serialized into API responses.
type PostView struct {
	PID       int    `json:"pid"`
	TID       int    `json:"tid"`
	UID       int    `json:"uid"`
	ToPID     string `json:"toPid,omitempty"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`

	Anonymous Flag `json:"anonymous,omitempty"`

	IsQuestion Flag   `json:"isQuestion,omitempty"`
	IsSolved   Flag   `json:"isSolved,omitempty"`
	SolvedPID  string `json:"solvedPid,omitempty"`

	User   *Author     `json:"user,omitempty"`
	Parent *ParentView `json:"parent,omitempty"`
	Events []EventView `json:"events,omitempty"`
}

// The outward-facing shape of a topic, with its nested posts.
type TopicView struct {
	TID       int    `json:"tid"`
	UID       int    `json:"uid"`
	MainPID   int    `json:"mainPid"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`

	Anonymous Flag `json:"anonymous,omitempty"`

	IsQuestion Flag   `json:"isQuestion,omitempty"`
	IsSolved   Flag   `json:"isSolved,omitempty"`
	SolvedPID  string `json:"solvedPid,omitempty"`

	Author *Author     `json:"author,omitempty"`
	Posts  []*PostView `json:"posts,omitempty"`
}

// The object-wrapper form of a paginated reply listing.
type RepliesPage struct {
	ToPID      string      `json:"toPid"`
	Page       int         `json:"page"`
	PageCount  int         `json:"pageCount"`
	TotalCount int         `json:"totalCount"`
	Replies    []*PostView `json:"replies"`
}
