package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
	corsMaxAge       = "86400"
	nullOrigin       = "null" // sent by pages opened from file://
)

// CORSConfig lists which request origins are echoed back.
type CORSConfig struct {
	AllowedOrigins        []string
	AllowedOriginPrefixes []string
	AllowNullOrigin       bool
}

// CORS computes Access-Control-* headers for beacon endpoints.
type CORS struct {
	origins  map[string]struct{}
	prefixes []string
	null     bool
}

// NewCORS creates a CORS policy from cfg
func NewCORS(cfg CORSConfig) *CORS {
	c := &CORS{
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		null:    cfg.AllowNullOrigin,
	}
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			c.origins[o] = struct{}{}
		}
	}
	for _, p := range cfg.AllowedOriginPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			c.prefixes = append(c.prefixes, p)
		}
	}
	return c
}

// AllowOrigin returns the Access-Control-Allow-Origin value for a request
// Origin: the origin itself when it is allowed, "*" otherwise.
func (c *CORS) AllowOrigin(origin string) string {
	if origin == "" {
		return "*"
	}
	if origin == nullOrigin {
		if c.null {
			return origin
		}
		return "*"
	}
	if _, ok := c.origins[origin]; ok {
		return origin
	}
	for _, p := range c.prefixes {
		if strings.HasPrefix(origin, p) {
			return origin
		}
	}
	return "*"
}

// SetHeaders writes the CORS headers for origin into h.
func (c *CORS) SetHeaders(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", c.AllowOrigin(origin))
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Max-Age", corsMaxAge)
	h.Add("Vary", "Origin")
}

// Handler sets CORS headers before calling next. Preflight requests are
// left to next so each endpoint decides how to answer them.
func (c *CORS) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.SetHeaders(w.Header(), r.Header.Get("Origin"))
		next.ServeHTTP(w, r)
	})
}
