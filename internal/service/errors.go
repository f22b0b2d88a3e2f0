package service

import "errors"

var (
	// ErrNoteNotFound covers both a missing note and an unauthorized read.
	// The two are indistinguishable to the caller so that read paths never
	// leak whether a note exists.
	ErrNoteNotFound = errors.New("note not found")

	// ErrForbidden is used only on the update path, where the note's
	// existence is revealed but the caller lacks owner or shared access.
	ErrForbidden = errors.New("no permission to update this note")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)
