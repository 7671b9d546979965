// Package csrf provides anti-forgery token sources for mutating requests.
// This is part of the platform layer and contains no business logic.
package csrf

import (
	"net/http"
	"net/url"
)

// HeaderName is the header the backend expects the token in.
const HeaderName = "X-CSRFToken"

// TokenSource yields the current anti-forgery token. An empty string means
// no token is known; callers still send the header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to a TokenSource.
type TokenFunc func() string

// Token calls f.
func (f TokenFunc) Token() string { return f() }

// Static is a fixed token, e.g. one supplied through configuration.
type Static string

// Token returns the fixed value.
func (s Static) Token() string { return string(s) }

// JarSource reads the token cookie from a cookie jar on every call, so a
// cookie refreshed by the backend is picked up without rebuilding anything.
type JarSource struct {
	jar        http.CookieJar
	baseURL    *url.URL
	cookieName string
}

// NewJarSource creates a source reading cookieName for baseURL from jar.
func NewJarSource(jar http.CookieJar, baseURL *url.URL, cookieName string) *JarSource {
	return &JarSource{jar: jar, baseURL: baseURL, cookieName: cookieName}
}

// Token returns the cookie value or "" when the cookie is absent.
func (s *JarSource) Token() string {
	if s == nil || s.jar == nil || s.baseURL == nil {
		return ""
	}
	for _, c := range s.jar.Cookies(s.baseURL) {
		if c.Name == s.cookieName {
			if v, err := url.QueryUnescape(c.Value); err == nil {
				return v
			}
			return c.Value
		}
	}
	return ""
}

// Chain returns the first non-empty token among sources.
type Chain []TokenSource

// Token implements TokenSource.
func (c Chain) Token() string {
	for _, src := range c {
		if src == nil {
			continue
		}
		if tok := src.Token(); tok != "" {
			return tok
		}
	}
	return ""
}
