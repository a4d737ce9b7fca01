package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/supabase-community/gotrue-go/types"
)

var ErrUserExists = errors.New("user already registered")

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

// CreateUser registers an already-confirmed account through the GoTrue admin
// API. The role is stored in user_metadata, where token verification reads it.
func (su *SupabaseRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	if su.serviceKey == "" {
		return nil, fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required to create users")
	}

	password := user.Password
	res, err := su.supabaseClient.Auth.WithToken(su.serviceKey).AdminCreateUser(types.AdminCreateUserRequest{
		Email:    user.Email,
		Password: &password,
		UserMetadata: map[string]interface{}{
			"name": user.Name,
			"role": user.Role,
		},
		EmailConfirm: true,
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "already registered") || strings.Contains(errMsg, "already been registered") {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &User{
		ID:    res.ID.String(),
		Email: res.Email,
		Name:  user.Name,
		Role:  user.Role,
	}, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}

// VerifyToken asks GoTrue who owns the access token.
func (su *SupabaseRepo) VerifyToken(ctx context.Context, token string) (*helpers.Identity, error) {
	if token == "" {
		return nil, helpers.NewUnauthorizedError("Unauthorized - No access token provided")
	}

	resp, err := su.supabaseClient.Auth.WithToken(token).GetUser()
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(strings.ToLower(msg), "invalid") {
			return nil, &helpers.AppError{Kind: helpers.KindUnauthorized, Message: "Unauthorized - Invalid access token", Err: err}
		}
		return nil, helpers.NewUpstreamError("identity provider unavailable", err)
	}

	name, _ := resp.UserMetadata["name"].(string)
	return &helpers.Identity{
		UserID: resp.ID.String(),
		Email:  resp.Email,
		Role:   helpers.RoleFromMetadata(resp.UserMetadata),
		Name:   name,
	}, nil
}
