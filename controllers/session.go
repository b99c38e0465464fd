package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicegen-backend/services"
)

// SessionHeader carries the session ID; the server echoes it on every
// response so a fresh client can pick it up from the first call.
const SessionHeader = "X-Session-ID"

const sessionContextKey = "session"

// SessionMiddleware resolves the caller's session, creating one when the
// header is absent or unknown.
func SessionMiddleware(store *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *services.Session
		if raw := c.GetHeader(SessionHeader); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				if existing, ok := store.Get(id); ok {
					sess = existing
				}
			}
		}
		if sess == nil {
			sess = store.Create()
		}
		c.Header(SessionHeader, sess.ID.String())
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

func currentPipeline(c *gin.Context) *services.Pipeline {
	v, _ := c.Get(sessionContextKey)
	return v.(*services.Session).Pipeline
}
