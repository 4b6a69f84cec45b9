package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	hostIdentityKey contextKey = iota
	sessionTokenKey
	externalServiceKey
)

// hostIdentity is what AuthSession resolved from the bearer token
type hostIdentity struct {
	id   uuid.UUID
	role string
}

// SetUserContext records the authenticated host and its role
func SetUserContext(ctx context.Context, hostID uuid.UUID, role string) context.Context {
	return context.WithValue(ctx, hostIdentityKey, hostIdentity{id: hostID, role: role})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	identity, ok := ctx.Value(hostIdentityKey).(hostIdentity)
	if !ok || identity.id == uuid.Nil {
		return uuid.Nil, false
	}
	return identity.id, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(hostIdentityKey).(hostIdentity)
	if !ok || identity.role == "" {
		return "", false
	}
	return identity.role, true
}

// SetTokenContext keeps the raw session token so logout can revoke it
func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey).(string)
	return token, ok && token != ""
}

// SetExternalServiceContext stores the authenticated external service (AI agent) id
func SetExternalServiceContext(ctx context.Context, serviceID uuid.UUID) context.Context {
	return context.WithValue(ctx, externalServiceKey, serviceID)
}

func GetExternalServiceFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(externalServiceKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
