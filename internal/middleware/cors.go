package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"workdesk/internal/config"
)

func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	origins := strings.Join(cfg.AllowedOrigins, ", ")
	methods := strings.Join(append(append([]string{}, cfg.AllowedMethods...), http.MethodOptions), ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	if headers == "" || headers == "*" {
		headers = "Content-Type, Authorization, " + HeaderActorID + ", " + HeaderActorName
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origins)
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
