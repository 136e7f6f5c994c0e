package auth

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// UsernameKey is the gin context key holding the resolved username.
const UsernameKey = "username"

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrMissingScope    = errors.New("required scope not granted")
	ErrMissingUsername = errors.New("username claim missing")
)

// Resolver turns an HS256 bearer token into a verified username.
type Resolver struct {
	secret        []byte
	scope         string
	usernameClaim string
}

func NewResolver(secret, scope, usernameClaim string) *Resolver {
	return &Resolver{secret: []byte(secret), scope: scope, usernameClaim: usernameClaim}
}

// Resolve verifies the token and returns the username. Every failure wraps
// domain.ErrUnauthenticated.
func (r *Resolver) Resolve(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, ErrMissingToken)
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	if r.scope != "" {
		scp, _ := claims["scp"].(string)
		if !slices.Contains(strings.Fields(scp), r.scope) {
			return "", fmt.Errorf("%w: %w: %s", domain.ErrUnauthenticated, ErrMissingScope, r.scope)
		}
	}

	username, _ := claims[r.usernameClaim].(string)
	if username == "" {
		return "", fmt.Errorf("%w: %w: %s", domain.ErrUnauthenticated, ErrMissingUsername, r.usernameClaim)
	}
	return username, nil
}

// Middleware rejects requests without a valid token. Browsers cannot set
// headers on a WebSocket upgrade, so access_token in the query is accepted too.
func Middleware(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := r.Resolve(tokenFrom(c))
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.auth").Str("path", c.Request.URL.Path).Msg("auth failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(UsernameKey, username)
		c.Next()
	}
}

func tokenFrom(c *gin.Context) string {
	if raw := c.GetHeader("Authorization"); strings.HasPrefix(raw, "Bearer ") {
		return strings.TrimPrefix(raw, "Bearer ")
	}
	return c.Query("access_token")
}
