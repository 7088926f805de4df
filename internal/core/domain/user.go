package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrUserExists   = errors.New("user already exists")
	ErrHashing      = errors.New("password hashing failed")
	ErrInvalidUser  = errors.New("username and password are required")
)

// User is an account that can follow access points.
type User struct {
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	AccessPoints []AccessPointID `json:"access_points"`
}

// Follows reports whether the user is subscribed to id.
func (u User) Follows(id AccessPointID) bool {
	for _, ap := range u.AccessPoints {
		if ap == id {
			return true
		}
	}
	return false
}
