package helpers

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the verified caller of a request.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

// IdentityProvider turns a bearer token into a verified Identity.
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Identity builds the caller identity from Supabase-style claims. The
// application role lives in user_metadata.role; the top-level "role" claim
// is the Postgres role ("authenticated") and is ignored.
func (cc *CustomClaims) Identity() *Identity {
	return &Identity{
		UserID: cc.Subject,
		Email:  cc.Email,
		Role:   RoleFromMetadata(cc.UserMetadata),
		Name:   metadataString(cc.UserMetadata, "name"),
	}
}

// RoleFromMetadata reads the role claim, defaulting to RoleUser.
func RoleFromMetadata(meta map[string]interface{}) string {
	role := strings.ToLower(metadataString(meta, "role"))
	if role == "" {
		return RoleUser
	}
	return role
}

func metadataString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	v, _ := meta[key].(string)
	return strings.TrimSpace(v)
}

func (id *Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

func (id *Identity) HasRole(role string) bool {
	return id.Role == role
}

func (id *Identity) IsOwner(userID string) bool {
	return id.UserID == userID
}

func (id *Identity) GetSafeRole() string {
	if id.Role == "" {
		return "guest"
	}
	return id.Role
}
