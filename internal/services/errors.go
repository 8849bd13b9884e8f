package services

import "errors"

// Sentinel errors returned by the services. Handlers map these to HTTP
// statuses with errors.Is; the messages are safe to surface to callers.
var (
	// ErrInvalidCredentials is deliberately generic: it never reveals
	// whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken signals a uniqueness violation on a user or store email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidInput signals a validation failure the boundary checks did
	// not catch, such as an out-of-range rating or an owner email colliding
	// with the store email.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound signals a referenced record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLinkageBroken signals a store-owner pairing whose bidirectional
	// link did not complete. Repaired only by the explicit repair sweep,
	// never silently on the read path.
	ErrLinkageBroken = errors.New("store owner link is incomplete")
)
