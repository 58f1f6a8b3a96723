package auth

import "errors"

var (
	ErrNoToken         = errors.New("Access denied. No token provided.")
	ErrInvalidToken    = errors.New("Invalid token.")
	ErrTokenExpired    = errors.New("Token expired.")
	ErrUserNotFound    = errors.New("Invalid token. User not found.")
	ErrUserDeactivated = errors.New("Account is deactivated.")
	ErrMissingSecret   = errors.New("jwt secret is not configured")
)
