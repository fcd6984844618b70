// internal/domain/models/user.go
package models

import "time"

// User is a registered account: pin host, connection endpoint, chat member.
//
// NOTE:
//   - Attendance and connections are not embedded on User.
//     Use the attendee and connection key namespaces to discover them.
//   - Rev is the store's opaque revision token; it is carried outside the
//     persisted body and must be passed back unchanged on update.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"` // already hashed by the caller
	Avatar       string `json:"avatar,omitempty"`
	AvatarConfig string `json:"avatarConfig,omitempty"`
	Bio          string `json:"bio,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Rev string `json:"-"`
}
