package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore_back_end/internal/models"
)

type AuditRecorder interface {
	Record(ctx context.Context, e models.AuditEntry) error
}

// Audit trace les mutations réussies d'une ressource (prix, remises, comptes...).
// L'enregistrement se fait après la réponse, un échec est seulement journalisé.
func Audit(recorder AuditRecorder, resource string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if recorder == nil || c.Request.Method == http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}

		entry := models.AuditEntry{
			Resource:   resource,
			ResourceID: c.Param("id"),
			Action:     strings.ToLower(c.Request.Method) + " " + c.FullPath(),
			Actor:      c.GetString(UserIDKey),
			Detail:     c.Request.URL.RawQuery,
			Timestamp:  time.Now().UTC(),
		}
		if err := recorder.Record(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			log.Warn("⚠️ Audit non enregistré", zap.String("resource", resource), zap.Error(err))
		}
	}
}
