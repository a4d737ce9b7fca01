package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/notifier"
	"github.com/supabase-community/gotrue-go/types"
)

var ErrAccountsDisabled = errors.New("account management requires the supabase identity provider")

// DemoAccounts are created by SeedDemoAccounts.
var DemoAccounts = []models.User{
	{Email: "admin@university.edu", Password: "admin123", Name: "Admin User", Role: helpers.RoleAdmin},
	{Email: "user@university.edu", Password: "user123", Name: "Regular User", Role: helpers.RoleUser},
}

type UserService struct {
	userRepo models.UserRepo
	notifier notifier.Notifier
	logger   *slog.Logger
}

// NewUserService accepts a nil repo; every account operation then fails with
// ErrAccountsDisabled.
func NewUserService(userRepo models.UserRepo, n notifier.Notifier, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		notifier: n,
		logger:   logger,
	}
}

// Enabled reports whether account operations are backed by a repository.
func (us *UserService) Enabled() bool {
	return us.userRepo != nil
}

// Signup registers a regular account. Callers cannot choose their role.
func (us *UserService) Signup(ctx context.Context, user *models.User) (*models.User, error) {
	if us.userRepo == nil {
		return nil, helpers.NewUpstreamError("signup unavailable", ErrAccountsDisabled)
	}
	if user == nil {
		return nil, helpers.NewValidationError("missing field")
	}
	user.Sanitize()
	if err := models.Validate.Struct(user); err != nil {
		return nil, helpers.NewValidationError("email, password (min 6 characters) and name are required")
	}
	user.Role = helpers.RoleUser

	created, err := us.userRepo.CreateUser(ctx, user)
	if errors.Is(err, models.ErrUserExists) {
		return nil, helpers.NewConflictError("User already registered")
	}
	if err != nil {
		return nil, helpers.NewUpstreamError("failed to create user", err)
	}

	us.logger.InfoContext(ctx, "user signed up", "user_id", created.ID, "email", created.Email)

	subject, body := WelcomeMessage(created.Name)
	if err := us.notifier.Notify(ctx, created.Email, subject, body); err != nil {
		us.logger.WarnContext(ctx, "welcome notification failed", "to", created.Email, "error", err)
	}
	return created, nil
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	if us.userRepo == nil {
		return nil, helpers.NewUpstreamError("login unavailable", ErrAccountsDisabled)
	}
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, helpers.NewValidationError("invalid email format")
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, helpers.NewValidationError("password is required")
	}

	resp, err := us.userRepo.AuthenticateUser(ctx, email, password)
	if err != nil {
		us.logger.WarnContext(ctx, "login failed", "email", email, "error", err)
		return nil, &helpers.AppError{Kind: helpers.KindUnauthorized, Message: "Invalid email or password", Err: err}
	}
	return resp, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if us.userRepo == nil {
		return nil, helpers.NewUpstreamError("token refresh unavailable", ErrAccountsDisabled)
	}
	if refreshToken == "" {
		return nil, helpers.NewUnauthorizedError("Unauthorized - No refresh token provided")
	}
	resp, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, &helpers.AppError{Kind: helpers.KindUnauthorized, Message: "Unauthorized - Session expired", Err: err}
	}
	return resp, nil
}

type SeedResult struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Created bool   `json:"created"`
}

// SeedDemoAccounts creates the demo administrator and user. Accounts that
// already exist count as seeded.
func (us *UserService) SeedDemoAccounts(ctx context.Context) ([]SeedResult, error) {
	if us.userRepo == nil {
		return nil, helpers.NewUpstreamError("demo seeding unavailable", ErrAccountsDisabled)
	}

	results := make([]SeedResult, 0, len(DemoAccounts))
	for _, demo := range DemoAccounts {
		account := demo
		_, err := us.userRepo.CreateUser(ctx, &account)
		switch {
		case errors.Is(err, models.ErrUserExists):
			results = append(results, SeedResult{Email: demo.Email, Role: demo.Role})
		case err != nil:
			return nil, helpers.NewUpstreamError(fmt.Sprintf("failed to seed %s", demo.Email), err)
		default:
			results = append(results, SeedResult{Email: demo.Email, Role: demo.Role, Created: true})
		}
	}

	us.logger.InfoContext(ctx, "demo accounts seeded", "count", len(results))
	return results, nil
}
