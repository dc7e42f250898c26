package models

// AnonymousName is displayed for authors without a forum name.
const AnonymousName = "Anonymous"

// User represents a forum account
type User struct {
	Username   string  `json:"username"`
	Passphrase string  `json:"-"` // bcrypt hash, never serialized
	Age        int     `json:"age"`
	ForumName  string  `json:"forumname"`
	Intro      string  `json:"intro"`
	Avatar     *Avatar `json:"avatar,omitempty"`
}

// Avatar is an image stored inline on the user record
type Avatar struct {
	Data        []byte `json:"data"`
	ContentType string `json:"contentType"`
}

// DisplayName returns the forum name, or AnonymousName when none is set.
func (u *User) DisplayName() string {
	if u == nil || u.ForumName == "" {
		return AnonymousName
	}
	return u.ForumName
}

// UserUpdate lists the fields a profile operation changes. Nil fields are left untouched.
type UserUpdate struct {
	ForumName *string
	Intro     *string
	Avatar    *Avatar
}

// Empty reports whether the update touches no field.
func (u UserUpdate) Empty() bool {
	return u.ForumName == nil && u.Intro == nil && u.Avatar == nil
}
