package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"

	actorIDKey   = "actor_id"
	actorNameKey = "actor_name"
)

// Actor copies the caller identity supplied by the upstream gateway into the
// gin context. Authentication happens before requests reach this service.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderActorID))
		name := strings.TrimSpace(c.GetHeader(HeaderActorName))
		if name == "" {
			name = id
		}
		c.Set(actorIDKey, id)
		c.Set(actorNameKey, name)
		c.Next()
	}
}

// ActorFrom returns the identity stored by Actor. Both values are empty when
// the caller sent no identity headers.
func ActorFrom(c *gin.Context) (id, name string) {
	return c.GetString(actorIDKey), c.GetString(actorNameKey)
}
