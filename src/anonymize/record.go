package anonymize

import (
	"strconv"

	"github.com/forumkit/anonboard/src/models"
)

// The attribute names an anonymity record occupies on an item's hash, plus
// the Q&A flags the write path manages alongside it.
const (
	attrAnonymous       = "anonymous"
	attrAnonymousUserID = "anonymousUserId"
	attrDisplayname     = "displayname"
	attrUID             = "uid"

	attrIsQuestion = "isQuestion"
	attrIsSolved   = "isSolved"
	attrSolvedPID  = "solvedPid"
)

var qaFields = []string{attrIsQuestion, attrIsSolved, attrSolvedPID}

// RecordFromAttrs reads an anonymity record out of an item's stored
// attributes. A nil or recordless map yields the zero record, meaning the
// item is not anonymous.
func RecordFromAttrs(attrs map[string]string) models.AnonymityRecord {
	if attrs == nil {
		return models.AnonymityRecord{}
	}

	var rec models.AnonymityRecord
	rec.Anonymous = models.TruthyAttr(attrs[attrAnonymous])
	if rec.Anonymous {
		rec.AnonymousUserID, _ = strconv.Atoi(attrs[attrAnonymousUserID])
		rec.Displayname = attrs[attrDisplayname]
		if rec.Displayname == "" {
			rec.Displayname = models.AnonymousDisplayname
		}
	}
	return rec
}

/*
RecordAttrs is the stored form of an anonymity record. It always includes
uid = "0": whatever else happens to the item, the publicly stored author must
not be the real one.
*/
func RecordAttrs(rec models.AnonymityRecord) map[string]string {
	displayname := rec.Displayname
	if displayname == "" {
		displayname = models.AnonymousDisplayname
	}
	return map[string]string{
		attrAnonymous:       "true",
		attrAnonymousUserID: strconv.Itoa(rec.AnonymousUserID),
		attrDisplayname:     displayname,
		attrUID:             "0",
	}
}
