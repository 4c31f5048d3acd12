package models

import (
	"bytes"
	"encoding/json"
)

/*
Flag is a boolean marker that tolerates the inconsistent encodings found in
stored content and client payloads: boolean true, the string "true", and the
string "1" all count as set. Anything else (including malformed values) counts
as unset rather than producing an error.
*/
type Flag bool

var _ json.Marshaler = Flag(false)
var _ json.Unmarshaler = (*Flag)(nil)

func (f Flag) Bool() bool {
	return bool(f)
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", `"true"`, "1", `"1"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// TruthyAttr reports whether a stored string attribute marks a flag as set.
func TruthyAttr(v string) bool {
	return v == "true" || v == "1"
}
