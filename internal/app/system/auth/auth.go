// internal/app/system/auth/auth.go
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants & globals                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userEmail = "user_email"
	userRole  = "user_role"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

// sessionName is set by InitSessionStore; defaults for tests.
var sessionName = "kolo-session"

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the user into context if they are logged in,
// either via the session cookie or via an API bearer token.
// If the session store has not been initialized yet, cookie auth is a no-op.
func LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Bearer tokens win: API/mobile clients send no cookies.
		if u := userFromBearer(r); u != nil {
			next.ServeHTTP(w, withUser(r, u))
			return
		}

		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, sessionName)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userName),
				Email: getString(sess, userEmail),
				Role:  getString(sess, userRole),
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// API callers get a plain 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// RequireRole ensures there is a user with one of the allowed platform
// roles in context.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InitSessionStore initializes the global session Store using the provided
// session key, cookie name, and domain. The `secure` flag controls whether
// cookies are marked Secure and which SameSite mode is used.
func InitSessionStore(sessionKey, name, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
		// Dev convenience only: pad the keyspace with a random hash key so
		// short keys do not weaken cookie authentication silently.
		extra := securecookie.GenerateRandomKey(32)
		Store = sessions.NewCookieStore([]byte(sessionKey), extra)
	} else {
		Store = sessions.NewCookieStore([]byte(sessionKey))
	}

	if name != "" {
		sessionName = name
	}

	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	// In prod with Secure cookies we use None so cookies can be sent in
	// cross-site contexts (the SPA runs on its own origin). In dev, Lax.
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	Store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// SaveSession writes the user into the session cookie.
func SaveSession(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, sessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	sess.Values[userRole] = u.Role
	return sess.Save(r, w)
}

// ClearSession removes the authenticated session, expiring the cookie.
func ClearSession(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, sessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
