package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig lists the browser origins allowed to call the API.  "*"
// allows any origin; "https://*.example.com" allows the subdomains.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origin and caches preflights for a day.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{MaxAge: 24 * time.Hour}
}

// corsConfig translates cfg for gin-contrib/cors.  The API only serves
// GET and POST; the request id and report file name are readable by
// scripts.
func corsConfig(cfg CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Accept", "Content-Type", HeaderRequestID},
		ExposeHeaders:    []string{HeaderRequestID, "Content-Disposition"},
		AllowCredentials: cfg.AllowCredentials,
		AllowWildcard:    true,
		MaxAge:           cfg.MaxAge,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			cc.AllowAllOrigins = true
			cc.AllowOrigins = nil
			break
		}
		cc.AllowOrigins = append(cc.AllowOrigins, o)
	}
	return cc
}

// CORS answers preflights with 204 and rejects requests from origins not
// in cfg with 403.  Requests without an Origin header pass untouched.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(corsConfig(cfg))
}
