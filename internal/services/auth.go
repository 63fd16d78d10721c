package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

const minPasswordLength = 6

type TokenIssuer interface {
	GenerateToken(user *models.User, ttl time.Duration) (string, error)
}

type RegisterInput struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Phone     string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateAdminInput struct {
	RegisterInput
	SetupKey string `json:"setupKey" binding:"required"`
}

type ProfileUpdate struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar" binding:"omitempty,url"`
}

// AuthResult is returned by every sign-in flow.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthConfig struct {
	TokenTTL      time.Duration
	AdminTokenTTL time.Duration
	ClientURL     string
	AdminSetupKey string
	PhoneRegion   string
}

type AuthService struct {
	users    repository.UserRepository
	resets   repository.PasswordResetRepository
	tokens   TokenIssuer
	notifier AccountNotifier
	log      *slog.Logger
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	resets repository.PasswordResetRepository,
	tokens TokenIssuer,
	notifier AccountNotifier,
	log *slog.Logger,
	cfg AuthConfig,
) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.AdminTokenTTL <= 0 {
		cfg.AdminTokenTTL = 24 * time.Hour
	}
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return &AuthService{
		users:    users,
		resets:   resets,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *AuthService) issue(u *models.User, ttl time.Duration) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(u, ttl)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *AuthService) normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	e164, err := utils.NormalizePhone(phone, s.cfg.PhoneRegion)
	if err != nil {
		return "", apperrors.Validation("Invalid phone number")
	}
	return e164, nil
}

func (s *AuthService) newUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, apperrors.Validation("Invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 6 characters")
	}
	phone, err := s.normalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("User already exists with this email")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to create user", err)
	}

	u := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  in.Password,
		Phone:     phone,
		Role:      role,
	}
	if err := u.HashPassword(); err != nil {
		return nil, apperrors.Internal("Failed to create user", err)
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("User already exists with this email")
		}
		return nil, apperrors.Internal("Failed to create user", err)
	}
	return u, nil
}

// Register creates a guest account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	u, err := s.newUser(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", "userId", u.ID)
	if s.notifier != nil {
		s.notifier.Welcome(ctx, u)
	}
	return s.issue(u, s.cfg.TokenTTL)
}

func (s *AuthService) authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, models.NormalizeEmail(in.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to sign in", err)
	}
	if err := u.CheckPassword(in.Password); err != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	u, err := s.authenticate(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issue(u, s.cfg.TokenTTL)
}

// AdminLogin issues the shorter-lived admin token.
func (s *AuthService) AdminLogin(ctx context.Context, in LoginInput) (*AuthResult, error) {
	u, err := s.authenticate(ctx, in)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	s.log.Info("admin signed in", "userId", u.ID)
	return s.issue(u, s.cfg.AdminTokenTTL)
}

// CreateAdmin bootstraps an admin account. It is disabled unless a setup
// key is configured.
func (s *AuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*AuthResult, error) {
	if s.cfg.AdminSetupKey == "" {
		return nil, apperrors.Forbidden("Admin setup is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(in.SetupKey), []byte(s.cfg.AdminSetupKey)) != 1 {
		return nil, apperrors.Forbidden("Invalid setup key")
	}

	u, err := s.newUser(ctx, in.RegisterInput, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Warn("admin account created", "userId", u.ID)
	return s.issue(u, s.cfg.AdminTokenTTL)
}

// ForgotPassword emails a reset link. It succeeds whether or not the
// address belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Internal("Failed to process request", err)
	}

	token, hash, err := utils.GenerateResetToken()
	if err != nil {
		return apperrors.Internal("Failed to process request", err)
	}
	if err := s.resets.InvalidateForUser(ctx, u.ID); err != nil {
		return apperrors.Internal("Failed to process request", err)
	}
	err = s.resets.Create(ctx, &models.PasswordResetToken{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(utils.ResetTokenExpiration),
	})
	if err != nil {
		return apperrors.Internal("Failed to process request", err)
	}

	if s.notifier != nil {
		s.notifier.PasswordReset(ctx, u, s.cfg.ClientURL+"/reset-password?token="+token)
	}
	return nil
}

func (s *AuthService) findReset(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.Validation("Invalid or expired reset token")
	}
	t, err := s.resets.FindByHash(ctx, utils.HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Validation("Invalid or expired reset token")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to verify token", err)
	}
	if !t.IsValid(s.now()) {
		return nil, apperrors.Validation("Invalid or expired reset token")
	}
	return t, nil
}

func (s *AuthService) VerifyResetToken(ctx context.Context, token string) error {
	_, err := s.findReset(ctx, token)
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLength {
		return apperrors.Validation("Password must be at least 6 characters")
	}
	t, err := s.findReset(ctx, token)
	if err != nil {
		return err
	}

	u, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		return apperrors.Internal("Failed to reset password", err)
	}
	if err := s.setPassword(ctx, u, password); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, t.ID); err != nil {
		s.log.Error("mark reset token used failed", "tokenId", t.ID, "error", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, viewer Viewer, current, next string) error {
	u, err := s.Profile(ctx, viewer)
	if err != nil {
		return err
	}
	if err := u.CheckPassword(current); err != nil {
		return apperrors.Validation("Current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return apperrors.Validation("Password must be at least 6 characters")
	}
	return s.setPassword(ctx, u, next)
}

func (s *AuthService) setPassword(ctx context.Context, u *models.User, password string) error {
	u.Password = password
	if err := u.HashPassword(); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}
	if err := s.users.UpdateFields(ctx, u.ID, map[string]any{"password_hash": u.PasswordHash}); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}
	s.log.Info("password changed", "userId", u.ID)
	if s.notifier != nil {
		s.notifier.PasswordChanged(ctx, u)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, viewer Viewer) (*models.User, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	u, err := s.users.FindByID(ctx, viewer.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch user", err)
	}
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, viewer Viewer, in ProfileUpdate) (*models.User, error) {
	u, err := s.Profile(ctx, viewer)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
		fields["first_name"] = u.FirstName
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
		fields["last_name"] = u.LastName
	}
	if in.Phone != nil {
		phone, err := s.normalizePhone(*in.Phone)
		if err != nil {
			return nil, err
		}
		u.Phone = phone
		fields["phone"] = phone
	}
	if in.Avatar != nil {
		u.Avatar = strings.TrimSpace(*in.Avatar)
		fields["avatar"] = u.Avatar
	}
	if len(fields) == 0 {
		return u, nil
	}

	if err := s.users.UpdateFields(ctx, u.ID, fields); err != nil {
		return nil, apperrors.Internal("Failed to update profile", err)
	}
	return u, nil
}
