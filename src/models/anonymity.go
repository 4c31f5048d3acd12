package models

/*
AnonymityRecord is the persisted projection of an item's anonymity state,
stored as attributes on the item's own hash (not a separate table).

Invariant: Anonymous == true implies AnonymousUserID refers to the original
author and the publicly stored uid is 0. Records are never deleted; anonymity
is permanent once set.
*/
type AnonymityRecord struct {
	Anonymous       bool
	AnonymousUserID int
	Displayname     string
}

// A staged record for a post whose id was not yet assigned at create-filter
// time. Q&A flags ride along so a later field strip cannot drop them.
type PendingRecord struct {
	Record     AnonymityRecord
	IsQuestion bool
	IsSolved   bool
}

// The flags of the originating request body, consulted at persisted-flush
// time. This is the single place guaranteed to have both the final post id
// and the submitted flags.
type SubmitBody struct {
	Anonymous       Flag `json:"anonymous,omitempty"`
	AnonymousUserID int  `json:"anonymousUserId,omitempty"`
	IsQuestion      Flag `json:"isQuestion,omitempty"`
	IsSolved        Flag `json:"isSolved,omitempty"`
}
