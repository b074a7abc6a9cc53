package model

import (
	"errors"
	"time"
)

// User represents a user in the system
type User struct {
	ID              int64     `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	PasswordHashed  string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	DisplayName     *string   `db:"display_name" json:"display_name"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profile_image_url"`
	ProfileImageKey *string   `db:"profile_image_key" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the public projection of a user embedded in lists and posts.
type UserSummary struct {
	ID              int64   `db:"id" json:"id"`
	Username        string  `db:"username" json:"username"`
	DisplayName     *string `db:"display_name" json:"display_name"`
	ProfileImageURL *string `db:"profile_image_url" json:"profile_image_url"`
}

// UserSearchResult is a search hit annotated with the searcher's relationship to it.
type UserSearchResult struct {
	UserSummary
	IsFriend       bool `json:"is_friend"`
	RequestPending bool `json:"request_pending"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	DisplayName     string  `json:"display_name"`
	ProfileImageURL *string `json:"-"`
	ProfileImageKey *string `json:"-"`
}

// UpdateProfileRequest carries the profile fields to change. Nil fields are left as they are.
type UpdateProfileRequest struct {
	Username        *string
	DisplayName     *string
	ProfileImageURL *string
	ProfileImageKey *string
}

// ProfileUpdate is the outcome of a profile edit.
// ReplacedImageKey names the stored image the edit superseded, if any.
type ProfileUpdate struct {
	User             *User
	ReplacedImageKey *string
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
	MaxSearchResults  = 20
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidUsername  = errors.New("invalid username")
	ErrPasswordTooShort = errors.New("password too short")
	ErrNothingToUpdate  = errors.New("no profile fields to update")
)
