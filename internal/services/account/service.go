package account

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/auth"
	"bookstore_back_end/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TokenIssuer interface {
	Issue(user models.User) (string, *auth.Claims, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// WelcomeMailer est optionnel.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, user models.User) error
}

// Session est renvoyée au client après login, inscription ou OAuth.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type Service struct {
	users   UserRepository
	tokens  TokenIssuer
	revoker TokenRevoker
	mailer  WelcomeMailer
	now     func() time.Time
	log     *zap.Logger
}

func NewService(users UserRepository, tokens TokenIssuer, revoker TokenRevoker, mailer WelcomeMailer, log *zap.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		mailer:  mailer,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgumentf("name is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperr.InvalidArgumentf("password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Provider:     models.ProviderLocal,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("👤 Compte créé", zap.String("user_id", user.ID.String()))

	s.welcome(ctx, *user)
	return s.session(user)
}

// Login renvoie Unauthorized sans distinguer email inconnu et mot de passe faux.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.Unauthorizedf("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, apperr.Unauthorizedf("this account signs in with %s", user.Provider)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.log.Warn("⚠️ Hash illisible", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, apperr.Unauthorizedf("invalid email or password")
	}
	if !ok {
		return nil, apperr.Unauthorizedf("invalid email or password")
	}

	if auth.IsBcryptHash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}
	return s.session(user)
}

// Logout révoque le token jusqu'à son expiration naturelle.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperr.Unauthorizedf("token has no id")
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return s.revoker.Revoke(ctx, claims.ID, expires)
}

// OAuthLogin retrouve l'utilisateur par email ou le crée sans mot de passe.
func (s *Service) OAuthLogin(ctx context.Context, provider, email, name string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, apperr.InvalidArgumentf("%s did not return a usable email", provider)
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.session(user)
	case !apperr.IsKind(err, apperr.NotFound):
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = strings.Split(email, "@")[0]
	}
	user = &models.User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Role:      models.RoleCustomer,
		Provider:  provider,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("👤 Compte OAuth créé", zap.String("user_id", user.ID.String()), zap.String("provider", provider))
	s.welcome(ctx, *user)
	return s.session(user)
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return apperr.InvalidStatef("this account signs in with %s", user.Provider)
	}
	ok, err := auth.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return apperr.Unauthorizedf("current password is incorrect")
	}
	if len(next) < auth.MinPasswordLength {
		return apperr.InvalidArgumentf("password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("🗑️ Compte supprimé", zap.String("user_id", id.String()))
	return nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// upgradeHash remplace un ancien hash bcrypt par Argon2id après un login réussi.
func (s *Service) upgradeHash(ctx context.Context, id uuid.UUID, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.users.UpdatePassword(ctx, id, hash)
	}
	if err != nil {
		s.log.Warn("⚠️ Migration du hash échouée", zap.String("user_id", id.String()), zap.Error(err))
	}
}

func (s *Service) welcome(ctx context.Context, user models.User) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendWelcome(ctx, user); err != nil {
		s.log.Warn("⚠️ Email de bienvenue non envoyé", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.InvalidArgumentf("invalid email address")
	}
	return email, nil
}
