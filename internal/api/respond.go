package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platebook/backend/internal/middleware"
	"github.com/platebook/backend/internal/service"
)

// currentUserID returns the authenticated user, if any.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// mustUserID is for routes behind AuthMiddleware.
func mustUserID(c *gin.Context) uuid.UUID {
	id, _ := currentUserID(c)
	return id
}

// abortWithError maps domain errors to HTTP responses. Every failure
// is deterministic; nothing here is retryable.
func abortWithError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"detail": verr.Message}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		if verr.Reason != "" {
			body["reason"] = verr.Reason
		}
		if len(verr.IDs) > 0 {
			body["ids"] = verr.IDs
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "not found"})
	case errors.Is(err, service.ErrAlreadyExists):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "already exists"})
	case errors.Is(err, service.ErrEmptyCart):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Your shopping cart is empty."})
	case errors.Is(err, service.ErrSelfSubscription):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "You cannot subscribe to yourself."})
	case errors.Is(err, service.ErrPermissionDenied):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid email or password."})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// parseIDParam parses a UUID path parameter, responding 404 on garbage
// (an unparsable id can never name an existing resource).
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return uuid.Nil, false
	}
	return id, true
}
