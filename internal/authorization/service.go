package authorization

import (
	"context"
	"errors"
)

// Service decides whether an actor may perform an action on an object.
// Actors are "system" or "user:<id>".
type Service interface {
	Authorize(ctx context.Context, actor string, object string, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
