// Package identity resolves the caller to an Actor. Tokens are minted by an
// external auth service; this core only verifies and trusts them.
package identity

import "context"

// Role distinguishes the two actor kinds the scheduling core cares about.
type Role string

const (
	RoleClient    Role = "client"
	RoleDietitian Role = "dietitian"
	RoleAdmin     Role = "admin"
)

// Actor is the resolved caller identity.
type Actor struct {
	ID    string
	Email string
	Role  Role
}

// IsDietitian reports whether the actor is the dietitian with the given id.
func (a Actor) IsDietitian(dietitianID string) bool {
	return a.Role == RoleDietitian && a.ID == dietitianID
}

// IsClient reports whether the actor is the client with the given email.
func (a Actor) IsClient(email string) bool {
	return a.Role == RoleClient && a.Email == email
}

type ctxKey string

const actorKey ctxKey = "nourish.actor"

// WithActor stores the actor in context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor if present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok && actor.ID != ""
}
