package user

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNameLength is the upper bound for a name, in characters.
	MaxNameLength = 100
	// MinEmailLength is the shortest email that is accepted.
	MinEmailLength = 3
)

// Validation failures returned by New.
var (
	ErrInvalidName  = errors.New("name must be between 1 and 100 characters")
	ErrInvalidEmail = errors.New("invalid email format")
)

// User represents a user entity in the system.
// ID is zero until a storage adapter persists the user.
type User struct {
	ID    int64  `json:"id"`    // ID is assigned by storage on first save
	Name  string `json:"name"`  // Name is the display name of the user
	Email string `json:"email"` // Email is the contact address (not unique)
}

// New validates name and email and returns a transient user with a zero ID.
// The email rule is deliberately weak: it must contain '@' and be at least
// three characters long.
func New(name, email string) (*User, error) {
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return nil, ErrInvalidName
	}
	if !strings.Contains(email, "@") || utf8.RuneCountInString(email) < MinEmailLength {
		return nil, ErrInvalidEmail
	}
	return &User{Name: name, Email: email}, nil
}

// WithID returns a copy of u carrying the storage-assigned id.
func (u User) WithID(id int64) User {
	u.ID = id
	return u
}

// ValidationErrors lists every failure New can return.
func ValidationErrors() []error {
	return []error{ErrInvalidName, ErrInvalidEmail}
}

// IsValidationError reports whether err is one of the construction failures.
func IsValidationError(err error) bool {
	for _, v := range ValidationErrors() {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
