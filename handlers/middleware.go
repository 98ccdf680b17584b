package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userDocIDKey = "user_document_id"

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject in the request context.
func (s *Service) RequireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	userDocID, err := s.TokenIssuer.Validate(strings.TrimPrefix(header, prefix))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(userDocIDKey, userDocID)
	c.Next()
}

func subjectFromContext(c *gin.Context) string {
	v, _ := c.Get(userDocIDKey)
	s, _ := v.(string)
	return s
}
