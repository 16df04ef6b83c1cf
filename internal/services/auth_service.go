package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"
	"carrental/internal/validators"
	"carrental/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, request *RegisterRequest) (*utils.AccessToken, error)
	Login(ctx context.Context, request *LoginRequest) (*utils.AccessToken, error)
	ValidateToken(ctx context.Context, token string) (string, error)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthConfig struct {
	JWTSecret         string
	AccessTokenTTL    time.Duration
	PasswordMinLength int
}

type authService struct {
	userRepo interfaces.UserRepository
	limiter  LoginLimiter
	config   AuthConfig
	logger   *logger.Logger
}

func NewAuthService(userRepo interfaces.UserRepository, limiter LoginLimiter, config AuthConfig, logger *logger.Logger) AuthService {
	if limiter == nil {
		limiter = NewLoginLimiter(nil, 0, 0)
	}
	return &authService{
		userRepo: userRepo,
		limiter:  limiter,
		config:   config,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, request *RegisterRequest) (*utils.AccessToken, error) {
	request.Email = normalizeEmail(request.Email)
	request.Username = strings.TrimSpace(request.Username)

	if err := validateRequest(request); err != nil {
		return nil, err
	}
	if len(request.Password) < s.config.PasswordMinLength {
		return nil, validationFailed(map[string]string{
			"Password": fmt.Sprintf("Password must be at least %d characters", s.config.PasswordMinLength),
		})
	}

	if _, err := s.userRepo.GetByEmail(ctx, request.Email); err == nil {
		return nil, conflict("Email already registered")
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByUsername(ctx, request.Username); err == nil {
		return nil, conflict("Username already taken")
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := hashPassword(request.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        request.Email,
		Username:     request.Username,
		PasswordHash: hashedPassword,
		Role:         models.UserRoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, conflict("Email or username already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.LogUserAction(user.Email, "register", map[string]interface{}{
		"username": user.Username,
	})

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, request *LoginRequest) (*utils.AccessToken, error) {
	request.Email = normalizeEmail(request.Email)
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	limit, err := s.limiter.Check(ctx, request.Email)
	if err != nil {
		s.logger.WithError(err).Warn("Login limiter unavailable")
	} else if !limit.Allowed {
		s.logger.LogSecurityEvent("login_locked", "medium", map[string]interface{}{
			"email":       request.Email,
			"retry_after": utils.FormatDuration(limit.RetryAfter),
		})
		if limit.RetryAfter > 0 {
			return nil, unauthorized("Too many failed login attempts, try again in %s", utils.FormatDuration(limit.RetryAfter))
		}
		return nil, unauthorized("Too many failed login attempts, try again later")
	}

	user, err := s.userRepo.GetByEmail(ctx, request.Email)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	if user == nil || !checkPassword(request.Password, user.PasswordHash) {
		s.recordFailedLogin(ctx, request.Email)
		return nil, unauthorized("Incorrect email or password")
	}

	if err := s.limiter.Reset(ctx, request.Email); err != nil {
		s.logger.WithError(err).Warn("Failed to reset login attempts")
	}

	s.logger.WithUserID(user.Email).Info("User logged in successfully")

	return s.issueToken(user)
}

func (s *authService) ValidateToken(ctx context.Context, token string) (string, error) {
	identity, err := utils.ExtractIdentityFromToken(token, s.config.JWTSecret)
	if err != nil {
		return "", unauthorized("Could not validate credentials")
	}
	return identity, nil
}

func (s *authService) recordFailedLogin(ctx context.Context, email string) {
	result, err := s.limiter.RecordFailure(ctx, email)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to record login attempt")
		return
	}
	s.logger.LogSecurityEvent("login_failed", "low", map[string]interface{}{
		"email":     email,
		"attempts":  result.Count,
		"remaining": result.Remaining,
	})
}

func (s *authService) issueToken(user *models.User) (*utils.AccessToken, error) {
	token, err := utils.GenerateAccessToken(user.Email, user.Username, s.config.JWTSecret, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func checkPassword(password, hashedPassword string) bool {
	if hashedPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRequest runs struct validation and converts field errors into an
// InvalidInput service error.
func validateRequest(request interface{}) error {
	err := validators.ValidateStruct(request)
	if err == nil {
		return nil
	}
	var verrs validators.ValidationErrors
	if errors.As(err, &verrs) {
		return validationFailed(verrs.Details())
	}
	return invalidInput("%s", err.Error())
}
