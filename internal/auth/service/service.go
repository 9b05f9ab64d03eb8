package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	auditModels "spendtrail/internal/audit/models"
	"spendtrail/internal/auth/device"
	"spendtrail/internal/auth/models"
	"spendtrail/internal/platform/metrics"
	dErrors "spendtrail/pkg/domain-errors"
	"spendtrail/pkg/platform/sentinel"
	"spendtrail/pkg/requestcontext"
)

// UserStore is the persistence contract for user accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// TokenIssuer mints signed access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email string, expiresIn time.Duration) (string, error)
}

// TokenRevocationList records revoked token IDs so logout takes effect before
// token expiry.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuditRecorder receives trail entries for login and logout events.
type AuditRecorder interface {
	Record(ctx context.Context, entry *auditModels.Entry)
}

// Service owns registration, credential verification, session issue and
// revocation, and the profile surface.
//
// Login and logout are audited; password changes are deliberately not, so the
// trail never hints at credential contents or rotation cadence.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	trl      TokenRevocationList
	audit    AuditRecorder
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service. tokenTTL bounds both the JWT expiry and the
// revocation-list retention for logged-out tokens.
func New(users UserStore, tokens TokenIssuer, trl TokenRevocationList, audit AuditRecorder, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		trl:      trl,
		audit:    audit,
		tokenTTL: tokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.Profile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.Profile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.Profile{}, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "user registered",
			"user_id", user.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return models.ProfileOf(user), nil
}

// Login verifies credentials and issues an access token. A successful login is
// recorded in the audit trail with the device the request came from.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	if s.metrics != nil {
		s.metrics.Logins.Inc()
	}
	s.audit.Record(ctx, &auditModels.Entry{
		UserID:      user.ID,
		Action:      auditModels.ActionLogin,
		Description: fmt.Sprintf("User logged in: %s (%s)", user.Email, device.ParseUserAgent(requestcontext.UserAgent(ctx))),
	})

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user logged in",
			"user_id", user.ID.String(),
			"client_ip", requestcontext.ClientIP(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	return &models.LoginResult{
		Token:     token,
		ExpiresAt: requestcontext.Now(ctx).Add(s.tokenTTL),
		User:      models.ProfileOf(user),
	}, nil
}

// Logout puts the presenting token on the revocation list for its remaining
// lifetime and records a logout audit entry.
func (s *Service) Logout(ctx context.Context) error {
	userID := requestcontext.UserID(ctx)
	if userID == uuid.Nil {
		return dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}

	jti := requestcontext.TokenID(ctx)
	remaining := requestcontext.TokenExpiry(ctx).Sub(requestcontext.Now(ctx))
	if jti != "" && remaining > 0 {
		if err := s.trl.RevokeToken(ctx, jti, remaining); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
		}
	}

	s.audit.Record(ctx, &auditModels.Entry{
		UserID:      userID,
		Action:      auditModels.ActionLogout,
		Description: fmt.Sprintf("User logged out: %s", requestcontext.UserEmail(ctx)),
	})

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user logged out",
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// Profile returns the caller-facing view of the user.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	if userID == uuid.Nil {
		return models.Profile{}, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Profile{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return models.ProfileOf(user), nil
}

// ChangePassword rotates the user's password after verifying the current one.
// Not audited: the trail records account activity, never credential material.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req models.ChangePasswordRequest) error {
	if userID == uuid.Nil {
		return dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "password changed",
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}
