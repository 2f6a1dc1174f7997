// Package session keeps the upstream bearer token and the visitor id in cookies.
package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/heronhoga/bars-fe/core/api"
)

const (
	// TokenCookie holds the upstream bearer token.
	TokenCookie = "token"
	// VisitorCookie keys browser-scoped stores.
	VisitorCookie = "bars_vid"

	DefaultMaxAge = 7 * 24 * time.Hour
	visitorMaxAge = 365 * 24 * time.Hour
)

// ErrNoToken is returned when the request carries no token cookie.
var ErrNoToken = api.ErrNoToken

// Store reads and writes the session cookies.
type Store struct {
	secure bool
	maxAge time.Duration
	now    func() time.Time
}

// NewStore creates a cookie store; secure marks cookies Secure (production).
func NewStore(secure bool, maxAge time.Duration) *Store {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Store{secure: secure, maxAge: maxAge, now: time.Now}
}

// SetToken stores token as an HTTP-only cookie. When token is a JWT expiring
// before the default lifetime, the cookie expires with it.
func (s *Store) SetToken(w http.ResponseWriter, token string) {
	maxAge := s.maxAge
	if exp, ok := tokenExpiry(token); ok {
		if left := exp.Sub(s.now()); left < maxAge {
			maxAge = left
		}
	}
	if maxAge < time.Second {
		maxAge = time.Second
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the bearer token of the request.
func (s *Store) Token(r *http.Request) (string, error) {
	c, err := r.Cookie(TokenCookie)
	if err != nil || c.Value == "" {
		return "", ErrNoToken
	}
	return c.Value, nil
}

// Clear expires the token cookie.
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// VisitorID returns the visitor id of the request, issuing a new one when
// the cookie is missing or malformed.
func (s *Store) VisitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorMaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	// later reads in the same request see the new id
	r.AddCookie(&http.Cookie{Name: VisitorCookie, Value: id})
	return id
}

// tokenExpiry reads exp without verifying the signature; it only bounds the cookie lifetime.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
