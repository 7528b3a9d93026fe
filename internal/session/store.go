package session

import (
	"context"
	"errors"
)

// Store keeps one State per session id. Get returns a fresh state for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Put(ctx context.Context, id string, st State) error
	Delete(ctx context.Context, id string) error
}

var ErrCorruptState = errors.New("stored session state is corrupt")
