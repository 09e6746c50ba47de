package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service. Handlers translate these to HTTP
// status classes with errors.Is; anything unwrapped is a 5xx.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid operation")
	ErrUpstream  = errors.New("upstream failure")
)

var (
	ErrSelfFollow   = fmt.Errorf("%w: cannot follow yourself", ErrInvalid)
	ErrEmptyPost    = fmt.Errorf("%w: post must contain text or an image", ErrInvalid)
	ErrEmptyComment = fmt.Errorf("%w: comment content is required", ErrInvalid)
)
