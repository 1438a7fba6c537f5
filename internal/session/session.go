// Package session issues and verifies the signed session cookie. The cookie
// carries only identity (user) and context (active workspace); the member's
// role is re-read from the database on every request so promotions, demotions,
// and removals take effect immediately.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// CookieName is the session cookie set on login and signup.
	CookieName = "launchos_session"
	// TTL is how long a session token stays valid.
	TTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("expired session token")
)

// Claims is the JWT payload for a session.
type Claims struct {
	UserID      uuid.UUID `json:"uid"`
	WorkspaceID uuid.UUID `json:"wid"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a session manager from SESSION_SECRET. When the variable
// is unset a random secret is generated, which invalidates all sessions on
// restart; that is safer than a guessable default.
func NewManager(logger *zap.Logger) *Manager {
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("could not generate session secret: %v", err))
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive restarts")
	}
	return &Manager{secret: []byte(secret), ttl: TTL}
}

// NewManagerWithSecret builds a manager from an explicit secret, used by tests.
func NewManagerWithSecret(secret string) *Manager {
	return &Manager{secret: []byte(secret), ttl: TTL}
}

// Create signs a session token for a user in a workspace.
func (m *Manager) Create(userID, workspaceID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      userID,
		WorkspaceID: workspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a session token.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil || claims.WorkspaceID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie writes the session cookie on the response.
func (m *Manager) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(m.ttl.Seconds()), "/", "", false, true)
}

// ClearCookie removes the session cookie.
func (m *Manager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}

// FromRequest reads and verifies the session cookie from a request.
func (m *Manager) FromRequest(c *gin.Context) (*Claims, error) {
	token, err := c.Cookie(CookieName)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return m.Verify(token)
}
