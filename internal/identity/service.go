package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/users"
	"github.com/gigdesk/gigdesk-backend/pkg/auth"
	"github.com/gigdesk/gigdesk-backend/pkg/config"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/security"
)

// ResetSender delivers a raw password-reset token to the account's email.
// Delivery is an external concern; a nil sender just drops the token.
type ResetSender interface {
	SendPasswordReset(ctx context.Context, email, rawToken string) error
}

// ServiceParams groups dependencies for the identity service.
type ServiceParams struct {
	DB          *db.Client
	Repo        *Repository
	Users       *users.Repository
	Config      *config.Config
	Logger      *logger.Logger
	ResetSender ResetSender
	Now         func() time.Time
}

// Session is the credential pair handed to a client after register, login
// or refresh. RefreshToken is the raw opaque token; only its hash is
// stored.
type Session struct {
	User         *models.User    `json:"user"`
	Profile      *models.Profile `json:"profile,omitempty"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// RegisterInput carries a new account's identity and profile fields.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
	Zipcode   string
}

// Service owns authentication: registration, login, refresh rotation,
// logout and password reset.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, rawRefreshToken string) (*Session, error)
	Logout(ctx context.Context, rawRefreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawResetToken, newPassword string) error
}

type service struct {
	db     *db.Client
	repo   *Repository
	users  *users.Repository
	cfg    *config.Config
	logg   *logger.Logger
	sender ResetSender
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity repo is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	if params.Config == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "config is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		users:  params.Users,
		cfg:    params.Config,
		logg:   params.Logger,
		sender: params.ResetSender,
		now:    now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)
	if email == "" || input.Password == "" || username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email, password and username are required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{Email: email, PasswordHash: hash}
	profile := &models.Profile{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Username:  username,
		Zipcode:   strings.TrimSpace(input.Zipcode),
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txUsers := users.NewRepository(tx)
		if err := txUsers.CreateUser(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		profile.UserID = user.ID
		if err := txUsers.CreateProfile(ctx, profile); err != nil {
			if db.IsUniqueViolation(err, "username") {
				return pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user, profile)
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// same failure as a bad password so accounts cannot be enumerated
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "invalid credentials")
	}

	profile, err := s.loadProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user, profile)
}

// Refresh rotates the presented token: it is revoked, linked to its
// successor, and a fresh credential pair is issued, all in one
// transaction. A token that was already spent revokes the whole chain.
func (s *service) Refresh(ctx context.Context, rawRefreshToken string) (*Session, error) {
	token, err := s.repo.FindRefreshTokenByHash(ctx, security.HashToken(rawRefreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refresh token")
	}

	now := s.now()
	if token.RevokedAt != nil {
		// replay of a spent token: assume the chain is compromised
		if err := s.repo.RevokeAllRefreshTokens(ctx, token.UserID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke token chain")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "refresh token already used")
	}
	if now.After(token.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "refresh token expired")
	}

	user, err := s.users.FindUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	profile, err := s.loadProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	rawNext, hashNext, err := security.NewOpaqueToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refresh token")
	}
	successor := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashNext,
		ExpiresAt: now.Add(s.cfg.JWT.RefreshTokenTTL()),
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		if err := txRepo.CreateRefreshToken(ctx, successor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
		}
		rotated, err := txRepo.RevokeRefreshToken(ctx, token.ID, now, &successor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
		}
		if !rotated {
			return pkgerrors.New(pkgerrors.CodeInvalidCredential, "refresh token already used")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	access, expiresAt, err := s.mintAccess(user, profile)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:         user,
		Profile:      profile,
		AccessToken:  access,
		RefreshToken: rawNext,
		ExpiresAt:    expiresAt,
	}, nil
}

// Logout revokes the presented refresh token when it exists. It never
// reveals whether it did.
func (s *service) Logout(ctx context.Context, rawRefreshToken string) error {
	token, err := s.repo.FindRefreshTokenByHash(ctx, security.HashToken(rawRefreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refresh token")
	}
	if _, err := s.repo.RevokeRefreshToken(ctx, token.ID, s.now(), nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke refresh token")
	}
	return nil
}

// RequestPasswordReset always reports success so callers cannot probe for
// accounts. When the account exists, prior reset tokens are dropped and a
// fresh hashed, time-boxed one is stored and handed to the sender.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	raw, hash, err := security.NewOpaqueToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	token := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.cfg.Reset.TokenTTL()),
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		if err := txRepo.DeleteResetTokensForUser(ctx, user.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear reset tokens")
		}
		if err := txRepo.CreateResetToken(ctx, token); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.sender != nil {
		if err := s.sender.SendPasswordReset(ctx, user.Email, raw); err != nil {
			// delivery is best effort; the token stays valid for a retry
			s.logg.Error(ctx, "sending password reset", err)
		}
	}
	return nil
}

// ResetPassword consumes a reset token exactly once, replaces the password
// and forces re-authentication everywhere by revoking every refresh token.
func (s *service) ResetPassword(ctx context.Context, rawResetToken, newPassword string) error {
	if len(newPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	token, err := s.repo.FindResetTokenByHash(ctx, security.HashToken(rawResetToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeInvalidCredential, "invalid reset token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reset token")
	}

	now := s.now()
	if token.UsedAt != nil || now.After(token.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeInvalidCredential, "reset token expired or already used")
	}

	hash, err := security.HashPassword(newPassword, s.cfg.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)

		consumed, err := txRepo.ConsumeResetToken(ctx, token.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reset token")
		}
		if !consumed {
			return pkgerrors.New(pkgerrors.CodeInvalidCredential, "reset token expired or already used")
		}
		if err := users.NewRepository(tx).UpdatePasswordHash(ctx, token.UserID, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
		}
		if err := txRepo.RevokeAllRefreshTokens(ctx, token.UserID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke refresh tokens")
		}
		if err := txRepo.DeleteResetTokensForUser(ctx, token.UserID, &token.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear reset tokens")
		}
		return nil
	})
}

func (s *service) issueSession(ctx context.Context, user *models.User, profile *models.Profile) (*Session, error) {
	raw, hash, err := security.NewOpaqueToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refresh token")
	}
	now := s.now()
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.cfg.JWT.RefreshTokenTTL()),
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	access, expiresAt, err := s.mintAccess(user, profile)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:         user,
		Profile:      profile,
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *service) mintAccess(user *models.User, profile *models.Profile) (string, time.Time, error) {
	now := s.now()
	payload := auth.AccessTokenPayload{UserID: user.ID}
	if profile != nil {
		payload.ProfileID = &profile.ID
		payload.Tier = &profile.Tier
	}
	token, err := auth.MintAccessToken(s.cfg.JWT, now, payload)
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	expiresAt := now.Add(time.Duration(s.cfg.JWT.ExpirationMinutes) * time.Minute)
	return token, expiresAt, nil
}

func (s *service) loadProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.users.FindProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}
