package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access denied")
	ErrEmptyText          = errors.New("text must not be empty")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRecipientConflict guards the targeted-XOR-global convention on
	// notifications at the one place it can be enforced.
	ErrRecipientConflict = errors.New("notification must target a recipient or be global, not both")
	ErrNoRecipient       = errors.New("notification needs a recipient or the global flag")
)
