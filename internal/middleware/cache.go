package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge         int
	Private        bool
	NoCache        bool
	MustRevalidate bool
	NoTransform    bool
	StaleIfError   int
	Vary           []string
	PublicPrefixes []string
	PublicMaxAge   int
}

// DefaultCacheConfig keeps API reads out of shared caches and lets the
// static files and API docs be cached publicly for an hour.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Private:        true,
		NoCache:        true,
		MustRevalidate: true,
		Vary:           []string{"Accept", "Authorization"},
		PublicPrefixes: []string{"/static/", "/swagger/"},
		PublicMaxAge:   3600,
	}
}

// Cache adds Cache-Control headers. Non-GET responses are never stored.
func Cache(config CacheConfig) gin.HandlerFunc {
	private := cacheDirectives(config)
	public := "public, max-age=" + strconv.Itoa(config.PublicMaxAge)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}

		for _, prefix := range config.PublicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Header("Cache-Control", public)
				c.Next()
				return
			}
		}

		if private != "" {
			c.Header("Cache-Control", private)
		}
		if len(config.Vary) > 0 {
			c.Header("Vary", strings.Join(config.Vary, ", "))
		}
		c.Next()
	}
}

func cacheDirectives(config CacheConfig) string {
	directives := make([]string, 0, 6)
	if config.Private {
		directives = append(directives, "private")
	} else {
		directives = append(directives, "public")
	}
	if config.NoCache {
		directives = append(directives, "no-cache")
	}
	if config.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(config.MaxAge))
	}
	if config.MustRevalidate {
		directives = append(directives, "must-revalidate")
	}
	if config.NoTransform {
		directives = append(directives, "no-transform")
	}
	if config.StaleIfError > 0 {
		directives = append(directives, "stale-if-error="+strconv.Itoa(config.StaleIfError))
	}
	return strings.Join(directives, ", ")
}
