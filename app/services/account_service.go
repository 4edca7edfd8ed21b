package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// RegisterInput is the body of POST /api/account/register.
type RegisterInput struct {
	Email     string `json:"email"     validate:"required,email,max=255"`
	Password  string `json:"password"  validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
}

// LoginInput is the body of POST /api/account/login.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput is the body of PUT /api/account/profile. Absent fields
// are left unchanged.
type UpdateProfileInput struct {
	FirstName *string `json:"firstName" validate:"nullable,min=1,max=100"`
	LastName  *string `json:"lastName"  validate:"nullable,min=1,max=100"`
	Password  *string `json:"password"  validate:"nullable,min=6"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AccountService registers and authenticates storefront accounts.
type AccountService struct {
	repos *repositories.Repositories
}

func NewAccountService(repos *repositories.Repositories) *AccountService {
	return &AccountService{repos: repos}
}

// Register creates a customer account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	taken, err := s.repos.Users.EmailTaken(ctx, email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("register: %w", err))
	}
	if taken {
		return nil, apperr.Conflict(apperr.CodeDuplicateEmail, "User with this email already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("register: hash password: %w", err))
	}

	user := &models.User{
		Email:     email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      models.RoleCustomer,
		IsActive:  true,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(apperr.CodeDuplicateEmail, "User with this email already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("register: %w", err))
	}

	logger.WithCtx(ctx).Info("account registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a bearer token. The active flag is
// only checked once the password matches.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := apperr.Auth(apperr.CodeInvalidCredentials, "Invalid email or password")

	user, err := s.repos.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("login: %w", err))
	}

	if !auth.CheckPassword(user.Password, password) {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, apperr.Auth(apperr.CodeAccountInactive, "Account is deactivated")
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("login: sign token: %w", err))
	}
	return &LoginResult{User: user, Token: token}, nil
}

// Profile returns the account with the given id.
func (s *AccountService) Profile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("profile: %w", err))
	}
	return user, nil
}

// UpdateProfile changes names and, when given, the password.
func (s *AccountService) UpdateProfile(ctx context.Context, id uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
		columns = append(columns, "first_name")
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
		columns = append(columns, "last_name")
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("update profile: hash password: %w", err))
		}
		user.Password = hash
		columns = append(columns, "password")
	}
	if len(columns) == 0 {
		return user, nil
	}

	if err := s.repos.Users.Update(ctx, user, columns...); err != nil {
		return nil, apperr.Internal(fmt.Errorf("update profile: %w", err))
	}
	return user, nil
}
