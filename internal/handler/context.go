package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextUserID = "userID"

// ActorID returns the authenticated user's id, or uuid.Nil on
// unauthenticated routes.
func ActorID(c *gin.Context) uuid.UUID {
	raw, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil
	}
	if id, ok := raw.(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
