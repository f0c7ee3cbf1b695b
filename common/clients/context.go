package clients

import "context"

type contextKey string

const actorIDKey contextKey = "actor_id"

// WithActorID returns a context carrying the authenticated actor id
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

// GetActorID extracts the actor id from context
func GetActorID(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorIDKey).(string)
	if !ok || actorID == "" {
		return "", false
	}
	return actorID, true
}
