package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/auth"
)

const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
	RoleKey   = "role"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthRequired valide le Bearer token, refuse les jti révoqués
// et place les claims dans le contexte Gin.
func AuthRequired(tokens TokenParser, revoked RevocationChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			log.Debug("❌ Token refusé", zap.Error(err))
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis indisponible : on refuse plutôt que d'accepter un token peut-être révoqué.
				log.Error("❌ Vérification blacklist impossible", zap.Error(err))
				abort(c, http.StatusServiceUnavailable, "authentication temporarily unavailable")
				return
			}
			if isRevoked {
				abort(c, http.StatusUnauthorized, "token revoked")
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// bearerToken lit le header Authorization. Les navigateurs ne pouvant pas poser
// de header sur un websocket, ?access_token= est accepté en repli.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("access_token"); token != "" {
			return token, true
		}
		abort(c, http.StatusUnauthorized, "missing token")
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		abort(c, http.StatusUnauthorized, "invalid authorization header")
		return "", false
	}
	return parts[1], true
}

// Claims retourne les claims posées par AuthRequired, nil sur une route publique.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// UserID retourne l'identifiant de l'utilisateur authentifié.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	claims := Claims(c)
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := claims.UserUUID()
	return id, err == nil
}

func IsAdmin(c *gin.Context) bool {
	claims := Claims(c)
	return claims != nil && claims.IsAdmin()
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
