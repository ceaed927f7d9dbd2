package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/session"
	"github.com/wisetreee/safe-haven/internal/store"
)

const (
	// ContextKeyUser holds the authenticated *models.User in the Gin context.
	ContextKeyUser = "currentUser"
	// ContextKeySessionToken holds the raw session token, for logout.
	ContextKeySessionToken = "sessionToken"
)

// SessionMiddleware resolves the session cookie to a user and stores it in
// the request context. Requests without a valid session pass through
// unauthenticated; RequireAuth/RequireStaff enforce access.
func SessionMiddleware(cookieName string, sessions session.Manager, storage store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		userID, err := sessions.UserID(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				log.Printf("Error resolving session token: %v", err)
			}
			c.Next()
			return
		}

		user, err := storage.GetUser(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("Error loading session user %d: %v", userID, err)
			}
			c.Next()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeySessionToken, token)
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the Gin context, or nil.
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireAuth aborts with 401 unless the request carries a valid session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequireStaff aborts with 401 for unauthenticated requests and 403 for
// authenticated non-staff users.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		if !user.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Staff privileges required"})
			return
		}
		c.Next()
	}
}
