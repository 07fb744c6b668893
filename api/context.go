package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpupo63/foodgram-backend/models"
)

type keyType string

const userKey keyType = "user"

// ctxWithUser stores the authenticated user in the context
func ctxWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// userFromCtx returns nil for anonymous requests
func userFromCtx(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// viewerID is uuid.Nil for anonymous requests
func viewerID(ctx context.Context) uuid.UUID {
	if user := userFromCtx(ctx); user != nil {
		return user.ID
	}
	return uuid.Nil
}
