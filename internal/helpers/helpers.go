package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier validates Supabase access tokens locally, either against the
// project's JWKS or against the shared HS256 secret.
type JWTVerifier struct {
	keyFunc jwt.Keyfunc
	methods []string
	jwks    *keyfunc.JWKS
}

func NewHMACVerifier(secret string) *JWTVerifier {
	key := []byte(secret)
	return &JWTVerifier{
		keyFunc: func(*jwt.Token) (interface{}, error) { return key, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
	}
}

func NewJWKSVerifier(ctx context.Context, jwksURL string) (*JWTVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return &JWTVerifier{
		keyFunc: jwks.Keyfunc,
		methods: []string{"RS256", "ES256"},
		jwks:    jwks,
	}, nil
}

// SupabaseJWKSURL is the well-known JWKS endpoint of a Supabase project.
func SupabaseJWKSURL(supabaseURL string) string {
	return strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
}

func (v *JWTVerifier) VerifyToken(ctx context.Context, tokenStr string) (*Identity, error) {
	if tokenStr == "" {
		return nil, NewUnauthorizedError("Unauthorized - No access token provided")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyFunc, jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, &AppError{Kind: KindUnauthorized, Message: "Unauthorized - Invalid access token", Err: err}
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, NewUnauthorizedError("Unauthorized - Invalid access token")
	}
	if claims.Subject == "" {
		return nil, NewUnauthorizedError("Unauthorized - Token has no subject")
	}

	return claims.Identity(), nil
}

// Close stops the background JWKS refresh, if any.
func (v *JWTVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func StringTrim(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'")
}

// FacilityImageURL builds the Cloudinary delivery URL for a stored image.
func FacilityImageURL(cld *cloudinary.Cloudinary, publicID string) (string, error) {
	if cld == nil {
		return "", errors.New("cloudinary is not configured")
	}
	img, err := cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to build image asset %s: %w", publicID, err)
	}
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build image url %s: %w", publicID, err)
	}
	return url, nil
}
