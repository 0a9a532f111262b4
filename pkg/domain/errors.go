package domain

import "errors"

// ErrSessionNotFound is returned when no session snapshot exists for a user.
var ErrSessionNotFound = errors.New("session not found")

// ErrUserNotFound is returned by the gateway when a user lookup has no match.
var ErrUserNotFound = errors.New("user not found")

// ErrLoginTaken is returned by the gateway when a login is already registered.
var ErrLoginTaken = errors.New("login already taken")

// ErrUserExists is returned by the gateway when the identity is already registered.
var ErrUserExists = errors.New("user already registered")

// ErrTaskNotFound is returned when a task does not exist for the owner.
var ErrTaskNotFound = errors.New("task not found")

// ErrEmptyQuery is returned when a user lookup sets no key.
var ErrEmptyQuery = errors.New("empty user query")
