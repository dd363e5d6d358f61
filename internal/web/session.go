package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hurricanerix/infiltrate/internal/logging"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "infiltrate_session"

	// SessionExpiry is how long a session cookie lasts.
	SessionExpiry = 24 * time.Hour

	// sessionIssuer is the JWT issuer of session tokens.
	sessionIssuer = "infiltrate"
)

// ErrInvalidSession is returned when a session token fails verification.
var ErrInvalidSession = errors.New("invalid session token")

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey int

const (
	sessionIDKey contextKey = iota
)

// SessionSigner issues and verifies the signed tokens stored in the session
// cookie. A token is an HS256 JWT whose subject is the session ID.
type SessionSigner struct {
	key []byte
	now func() time.Time
}

// NewSessionSigner creates a signer using key as the HMAC secret.
func NewSessionSigner(key []byte) *SessionSigner {
	return &SessionSigner{key: key, now: time.Now}
}

// Sign returns a token for sessionID that expires after SessionExpiry.
func (s *SessionSigner) Sign(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionExpiry)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

// Verify checks token and returns the session ID it carries.
func (s *SessionSigner) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: bad subject: %v", ErrInvalidSession, err)
	}
	return id.String(), nil
}

// GetSessionID retrieves the session ID from the request context.
// Returns an empty string if no session ID exists in the context.
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// setSessionID stores the session ID in the context.
func setSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionMiddleware ensures every request has a session ID.
// If the request carries a valid session cookie, its ID is used. Otherwise a
// new ID is generated and a signed cookie is set. Tampered or expired cookies
// start a new session.
func SessionMiddleware(signer *SessionSigner, logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string

			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				id, err := signer.Verify(cookie.Value)
				if err != nil {
					logger.Debug("Discarding session cookie: %v", err)
				} else {
					sessionID = id
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				token, err := signer.Sign(sessionID)
				if err != nil {
					logger.Error("Failed to create session: %v", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}

				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(SessionExpiry.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   isHTTPS(r),
				})
			}

			next.ServeHTTP(w, r.WithContext(setSessionID(r.Context(), sessionID)))
		})
	}
}

// isHTTPS reports whether the client reached us over TLS, directly or through
// a proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
