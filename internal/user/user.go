// Package user persists user accounts and exposes the directory the
// messaging core resolves identities against.
package user

import "time"

// User is a registered account. GithubID is set only for accounts created
// through the GitHub login flow; PasswordHash only for password accounts.
type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string
	GithubID     *int64 `gorm:"uniqueIndex"`
	AvatarURL    string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public view of a user returned by the HTTP API.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}
