// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/teamline/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the current user's name, Mongo ObjectID, and a found
// flag. If no user is present in context or the user ID is malformed, it
// returns "", NilObjectID, false — callers can trust that ok=true means a
// valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "", primitive.NilObjectID, false
	}
	return user.Name, userID, true
}

// ConnectionID returns the client's realtime correlation token, if any.
// It is used only for echo suppression when broadcasting, never for
// authorization; an empty or stale value simply means no exclusion.
func ConnectionID(r *http.Request) string {
	return r.Header.Get("X-Connection-ID")
}
