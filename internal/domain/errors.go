package domain

import "errors"

// Directory errors. Callers match with errors.Is; producers wrap them with
// context.
var (
	ErrNameCollision      = errors.New("name already in use")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidParent      = errors.New("parent group is not in the hierarchy")
	ErrInvalidPost        = errors.New("invalid post")
	ErrUnknownTarget      = errors.New("follow target is not a user")
	ErrAlreadyFollowing   = errors.New("already following")
	ErrAlreadyInitialized = errors.New("hierarchy root already exists")
	ErrUserNotFound       = errors.New("user not found")
)
