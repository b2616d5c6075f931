package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"userauth/api/internal/response"
	"userauth/api/internal/security"
)

const (
	identityKey = "auth_identity"

	MessageTokenRequired = "Unauthorized: access token required"
	MessageTokenInvalid  = "Unauthorized: invalid or expired token"
)

// Identity is the authenticated caller attached to the request by Auth.
type Identity struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type AccessVerifier interface {
	VerifyAccess(token string) (*security.Claims, error)
}

// Auth resolves the bearer access token into an Identity. Missing, invalid,
// expired and revoked tokens all end the request with 401.
func Auth(tokens AccessVerifier, revoked security.RevocationList, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, MessageTokenRequired)
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := tokens.VerifyAccess(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, MessageTokenInvalid)
			return
		}

		isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("revocation check failed")
			response.Abort(c, http.StatusInternalServerError, response.MessageInternal)
			return
		}
		if isRevoked {
			response.Abort(c, http.StatusUnauthorized, MessageTokenInvalid)
			return
		}

		identity := Identity{
			UserID:  claims.UserID,
			TokenID: claims.ID,
		}
		if claims.ExpiresAt != nil {
			identity.ExpiresAt = claims.ExpiresAt.Time
		}
		SetIdentity(c, identity)

		c.Next()
	}
}

// CurrentIdentity returns the identity attached by Auth.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := val.(Identity)
	return identity, ok
}

// SetIdentity attaches identity to c.
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
}
