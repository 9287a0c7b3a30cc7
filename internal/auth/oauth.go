package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"

	"bookstore_back_end/internal/config"
)

type providerKey struct{}

// WithProvider place le nom du provider (paramètre de route) dans la requête pour gothic.
func WithProvider(r *http.Request, provider string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), providerKey{}, provider))
}

func providerName(r *http.Request) (string, error) {
	if p, ok := r.Context().Value(providerKey{}).(string); ok && p != "" {
		return p, nil
	}
	if p := r.URL.Query().Get("provider"); p != "" {
		return p, nil
	}
	return "", errors.New("provider not found")
}

// SetupOAuth configure gothic (session cookie + providers configurés).
// Retourne le nombre de providers activés, 0 désactive les routes OAuth.
func SetupOAuth(cfg config.OAuthConfig, baseURL, sessionSecret string, secure bool, log *zap.Logger) int {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store
	gothic.GetProviderName = providerName

	providers := Providers(cfg, baseURL)
	if len(providers) == 0 {
		log.Warn("⚠️ Aucun provider OAuth configuré")
		return 0
	}
	goth.UseProviders(providers...)
	log.Info("✅ OAuth initialisé", zap.Int("providers", len(providers)))
	return len(providers)
}

func Providers(cfg config.OAuthConfig, baseURL string) []goth.Provider {
	var providers []goth.Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, google.New(
			cfg.GoogleClientID, cfg.GoogleClientSecret, baseURL+"/api/auth/google/callback", "email", "profile"))
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(
			cfg.FacebookClientID, cfg.FacebookClientSecret, baseURL+"/api/auth/facebook/callback", "email"))
	}
	return providers
}
