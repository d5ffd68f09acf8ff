package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound = errors.New("campaign not found")
	ErrInactive = errors.New("campaign is not active")
	ErrNoDriver = errors.New("no driver registered for platform")
)
