package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// Cookie names shared between the guard and the auth handlers.
const (
	TokenCookie       = "token"
	LastVisitedCookie = "lastVisited"
)

// SessionValidator reports whether a session token still references a
// live, unexpired session row.
type SessionValidator interface {
	Active(token string) bool
}

// ProtectedPrefixes lists the navigation path prefixes that require an
// active session. Matching is on path-segment boundaries.
var ProtectedPrefixes = []string{
	"/dashboard",
	"/kalibrasi",
	"/instrumen",
	"/ncr",
	"/users",
}

// Guard is the navigation-level route guard. It runs before any page
// handling and performs exactly one transition per request:
//
//  1. root path with a session: redirect to the validated last-visited
//     cookie value, or the default landing path;
//  2. protected path without a session: redirect to root;
//  3. anything else: pass through unchanged.
//
// The guard never creates or mutates a session.
func Guard(sessions SessionValidator, defaultLanding string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loggedIn := resolveClaims(r, sessions) != nil

			if r.URL.Path == "/" && loggedIn {
				target := defaultLanding
				if c, err := r.Cookie(LastVisitedCookie); err == nil {
					if dest, ok := safeRedirectTarget(c.Value); ok && dest != "/" {
						target = dest
					}
				}
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}

			if isProtected(r.URL.Path) && !loggedIn {
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth protects API routes. Unlike the navigation guard it
// answers 401 instead of redirecting, and passes the resolved claims
// down via context.
func RequireAuth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := resolveClaims(r, sessions)
			if claims == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// resolveClaims extracts a token from the Authorization header or the
// session cookie, verifies it and checks the referenced session row.
// Any failure yields nil, never an error.
func resolveClaims(r *http.Request, sessions SessionValidator) *Claims {
	var tokenStr string

	authHeader := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		tokenStr = after
	}

	if tokenStr == "" {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil {
			return nil
		}
		tokenStr = cookie.Value
	}
	if tokenStr == "" {
		return nil
	}

	claims, err := ValidateJWT(tokenStr)
	if err != nil {
		return nil
	}

	// The session row is authoritative. A valid signature over a
	// deleted or expired row does not count as a login.
	if claims.SessionToken == "" || !sessions.Active(claims.SessionToken) {
		return nil
	}
	return claims
}

// isProtected reports whether a path falls under a protected prefix.
// Matching respects segment boundaries, so "/ncr" covers "/ncr/123"
// but not "/ncrx".
func isProtected(path string) bool {
	for _, prefix := range ProtectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// safeRedirectTarget decodes a client-supplied path and accepts it only
// if it is a same-origin relative path inside the protected route set.
// Anything else falls back to the default landing page.
func safeRedirectTarget(raw string) (string, bool) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return "", false
	}
	if decoded == "/" {
		return decoded, true
	}
	// Reject absolute URLs and protocol-relative paths.
	if !strings.HasPrefix(decoded, "/") || strings.HasPrefix(decoded, "//") || strings.HasPrefix(decoded, "/\\") {
		return "", false
	}
	if !isProtected(decoded) {
		return "", false
	}
	return decoded, true
}
