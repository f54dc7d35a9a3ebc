package security

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

// HeadersConfig controls the response headers added to every page.
type HeadersConfig struct {
	// CSP is sent as Content-Security-Policy when non-empty.
	CSP string
	// HSTSMaxAge is advertised over TLS only; zero disables it.
	HSTSMaxAge time.Duration
	// NoStore keeps ledger pages out of browser and proxy caches. Handlers
	// that set their own Cache-Control win.
	NoStore bool
}

// DefaultHeadersConfig allows the pages nothing beyond their own
// stylesheet and same-origin form posts.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: strings.Join([]string{
			"default-src 'none'",
			"style-src 'self'",
			"img-src 'self'",
			"form-action 'self'",
			"frame-ancestors 'none'",
			"base-uri 'none'",
		}, "; "),
		HSTSMaxAge: 365 * 24 * time.Hour,
		NoStore:    true,
	}
}

// HeadersMiddleware stamps a fixed header set onto responses.
type HeadersMiddleware struct {
	fixed http.Header
	hsts  string
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	fixed := http.Header{}
	fixed.Set("X-Content-Type-Options", "nosniff")
	fixed.Set("X-Frame-Options", "DENY")
	fixed.Set("Referrer-Policy", "same-origin")
	fixed.Set("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=()")
	fixed.Set("Cross-Origin-Opener-Policy", "same-origin")
	fixed.Set("Cross-Origin-Resource-Policy", "same-origin")
	if config.CSP != "" {
		fixed.Set("Content-Security-Policy", config.CSP)
	}
	if config.NoStore {
		fixed.Set("Cache-Control", "no-store")
	}

	h := &HeadersMiddleware{fixed: fixed}
	if config.HSTSMaxAge > 0 {
		h.hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(config.HSTSMaxAge/time.Second))
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range h.fixed {
			dst[k] = slices.Clone(v)
		}
		if h.hsts != "" && r.TLS != nil {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware marks embedded assets cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
