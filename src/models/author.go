package models

/*
Author is the identity block embedded in outward-facing topic and post views.
The same shape carries either a real identity or the masked one.
*/
type Author struct {
	UID         int    `json:"uid"`
	Username    string `json:"username"`
	Userslug    string `json:"userslug"`
	Displayname string `json:"displayname"`
	Fullname    string `json:"fullname,omitempty"`
	Picture     string `json:"picture"`
	IconBgColor string `json:"icon:bgColor,omitempty"`
	IconText    string `json:"icon:text,omitempty"`

	// Supplementary profile fields, filled in on listing surfaces only.
	Designation string `json:"designation,omitempty"`
	Location    string `json:"location,omitempty"`
}

const AnonymousDisplayname = "Anonymous"

// The identity substituted wherever a real identity would otherwise appear.
func MaskedIdentity() Author {
	return Author{
		UID:         0,
		Username:    "Anonymous",
		Userslug:    "anonymous",
		Displayname: "Anonymous",
		Fullname:    "Anonymous",
		Picture:     "",
		IconBgColor: "#666666",
		IconText:    "A",
	}
}
