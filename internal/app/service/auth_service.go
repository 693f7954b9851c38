package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restaurant_menu/internal/common"
	"restaurant_menu/internal/common/security"
	"restaurant_menu/internal/domain/model"
	"restaurant_menu/internal/domain/repository"
)

var (
	errInvalidCredentials = common.WithMessage(common.ErrUnauthorized, "Invalid email or password")
	errNoToken            = common.WithMessage(common.ErrNoToken, "No token found")
	errInvalidToken       = common.WithMessage(common.ErrInvalidToken, "Invalid token")
	errUserGone           = common.WithMessage(common.ErrNotFound, "User not found")
	errServerConfig       = common.WithMessage(common.ErrMissingSecret, "Server configuration error")
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenIssuer
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,emailsyntax"`
	Password        string `json:"password" validate:"required,min=6,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=USER ADMIN"`
}

var registerMessages = map[string]string{
	"username.required":       "Username is required",
	"username.min":            "Username must be at least 3 characters long",
	"username.max":            "Username must be less than 50 characters",
	"email.required":          "Email is required",
	"email.emailsyntax":       "Please enter a valid email address",
	"password.required":       "Password is required",
	"password.min":            fmt.Sprintf("Password must be at least %d characters long", common.PasswordMinLength),
	"password.strongpassword": "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"confirmPassword.eqfield": "Passwords do not match",
	"role.required":           "Role is required",
	"role.oneof":              "Role must be either USER or ADMIN",
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,emailsyntax"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"email.required":    "Email and password are required",
	"email.emailsyntax": "Please enter a valid email address",
	"password.required": "Email and password are required",
}

// Session is the resolved identity behind a login or a verified token.
type Session struct {
	User    *model.User
	IsAdmin bool
	// Token is only set by Login.
	Token string
}

func duplicateEmail() error {
	return common.NewValidationError("User with this email already exists",
		common.FieldError{Field: "email", Message: "User with this email already exists"})
}

// Register validates req, hashes the password and stores the user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := common.ValidateStruct(req, registerMessages); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, duplicateEmail()
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, common.ErrConflict) {
			return nil, duplicateEmail()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks credentials and mints a session token. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := common.ValidateStruct(req, loginMessages); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		if errors.Is(err, common.ErrMissingSecret) {
			return nil, errServerConfig
		}
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{User: user, IsAdmin: user.IsAdmin(), Token: token}, nil
}

// Verify resolves the user behind token, re-reading the row so that deleted users
// holding a still-valid token are rejected.
func (s *AuthService) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, errNoToken
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, common.ErrMissingSecret) {
			return nil, errServerConfig
		}
		return nil, errInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errUserGone
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &Session{User: user, IsAdmin: user.IsAdmin()}, nil
}
