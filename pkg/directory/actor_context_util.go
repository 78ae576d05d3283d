package directory

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const ActorKey contextKey = "actor"

var ErrNoActor = errors.New("actor not found")

// CurrentActorId retrieves the acting user's ID from the context. Returns ErrNoActor if not present.
func CurrentActorId(ctx context.Context) (int, error) {
	actor, ok := ctx.Value(ActorKey).(User)
	if !ok {
		log.Trace("actor not found in context")
		return 0, ErrNoActor
	}
	return actor.Id, nil
}

func CurrentActor(ctx context.Context) (User, error) {
	actor, ok := ctx.Value(ActorKey).(User)
	if !ok {
		log.Trace("actor not found in context")
		return User{}, ErrNoActor
	}
	return actor, nil
}

func WithActor(ctx context.Context, actor User) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
