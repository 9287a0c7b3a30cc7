package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore_back_end/internal/cache"
)

const (
	APIMaxRequests      = 100
	APIWindow           = time.Minute
	RegisterMaxAttempts = 3
	RegisterWindow      = 30 * time.Minute
	LoginMaxAttempts    = 5
	LoginCooldown       = 15 * time.Minute
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (cache.Decision, error)
}

type LoginLimiter interface {
	Locked(ctx context.Context, email string) (time.Duration, error)
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// RateLimit limite les requêtes par IP sur une fenêtre fixe.
// Si Redis ne répond pas, la requête passe.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP(), limit, window)
		if err != nil {
			log.Warn("⚠️ Rate limit indisponible", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !decision.Allowed {
			tooMany(c, decision.RetryAfter)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

// LoginRateLimit bloque un email après LoginMaxAttempts échecs.
// Le body est relu puis restauré pour le handler.
func LoginRateLimit(guard LoginLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}
		email := strings.ToLower(strings.TrimSpace(input.Email))
		ctx := c.Request.Context()

		ttl, err := guard.Locked(ctx, email)
		if err != nil {
			log.Warn("⚠️ Lecture cooldown impossible", zap.Error(err))
		}
		if ttl > 0 {
			tooMany(c, ttl)
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if err := guard.Fail(ctx, email); err != nil {
				log.Warn("⚠️ Compteur de tentatives non incrémenté", zap.Error(err))
			}
		case http.StatusOK:
			if err := guard.Reset(ctx, email); err != nil {
				log.Warn("⚠️ Reset des tentatives impossible", zap.Error(err))
			}
		}
	}
}

func tooMany(c *gin.Context, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       fmt.Sprintf("too many requests, retry in %d seconds", seconds),
		"retry_after": seconds,
	})
}
