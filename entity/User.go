package entity

import (
	"net/url"
	"strings"
)

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Role        Role   `json:"role"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Provider    string `json:"provider,omitempty"` // "google" etc. empty for password accounts
}

// Name returns the best display label available for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	return u.Email
}

// Avatar falls back to a generated initials image when no picture is set.
func (u *User) Avatar() string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(u.Name())
}

// Session is the active identity of one client: a user plus its bearer token.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"-"`
}
