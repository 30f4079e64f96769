package service

import "context"

type actorKey struct{}

const SystemActor = "system"

// WithActor attaches the identity performing a request to ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the identity on ctx, or SystemActor for scheduled work.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
