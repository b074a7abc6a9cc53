package model

import (
	"errors"
	"time"
)

// DeviceToken is an Expo push token registered by one of a user's devices.
type DeviceToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Token     string    `db:"token" json:"-"`
	Platform  string    `db:"platform" json:"platform"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterTokenRequest is the request body for registering a device token.
type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

var (
	ErrInvalidPlatform  = errors.New("platform must be ios or android")
	ErrInvalidPushToken = errors.New("push token is required")
)

// IsValidPlatform reports whether p is a supported device platform.
func IsValidPlatform(p string) bool {
	return p == PlatformIOS || p == PlatformAndroid
}
