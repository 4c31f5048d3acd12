package models

type User struct {
	ID int `db:"id"`

	Username string `db:"username"`
	Userslug string `db:"userslug"`

	Fullname    string `db:"fullname"`
	Designation string `db:"designation"`
	Location    string `db:"location"`
	Picture     string `db:"picture"`

	Admin bool `db:"admin"`
}

func (u *User) BestName() string {
	if u.Fullname != "" {
		return u.Fullname
	}
	return u.Username
}
