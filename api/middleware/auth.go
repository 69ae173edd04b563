package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/leadscout/models"
)

// Auth returns API-key authentication middleware. The scrape endpoints sit
// behind it because every authenticated request can cost a whole browser
// process; the validated key also becomes the rate-limit identity, so one
// caller's scraping cannot starve another's quota.
//
// Accepted header styles:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// With no keys configured the middleware passes everything through, which
// is the local-development mode.
func Auth(apiKeys []string) gin.HandlerFunc {
	if len(apiKeys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	valid := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			valid[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		key := requestAPIKey(c)
		if key == "" {
			abortUnauthorized(c, "missing API key: provide X-API-Key or Authorization: Bearer <key>")
			return
		}
		if _, ok := valid[key]; !ok {
			abortUnauthorized(c, "invalid API key")
			return
		}

		// Downstream middleware keys rate limits on this.
		c.Set("api_key", key)
		c.Next()
	}
}

// requestAPIKey reads the key from X-API-Key, then Authorization: Bearer.
func requestAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
