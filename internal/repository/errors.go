package repository

import "errors"

// ErrNotFound is returned when a requested document does not exist. Services
// translate it into their own taxonomy; repositories never leak HTTP codes.
var ErrNotFound = errors.New("document not found")
