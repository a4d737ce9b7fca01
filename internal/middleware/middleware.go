package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/services"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	// UserKey is the gin context key holding the caller's *helpers.Identity.
	UserKey = "user"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	RefreshTokenMaxAge = 3600 * 24 * 30
)

// TokenRefresher exchanges a refresh token for a new session.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		requestID, _ := c.Get("request_id")
		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if identity := CurrentUser(c); identity != nil {
			attrs = append(attrs, "user_id", identity.UserID)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler renders the last error attached to the context. Typed errors
// keep their status and message; anything else is a 500 with a generic body.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := helpers.StatusCode(err)
		requestID, _ := c.Get("request_id")

		logAttrs := []any{
			"request_id", requestID,
			"error", err.Error(),
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Request error", logAttrs...)
		} else {
			logger.Warn("Request rejected", logAttrs...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, models.ErrorResponse(helpers.PublicMessage(err)))
	}
}

// AuthMiddleware verifies the bearer token (or the access_token cookie) and
// stores the caller's identity under UserKey. An expired cookie session is
// renewed once with the refresh_token cookie when refresher is set.
func AuthMiddleware(idp helpers.IdentityProvider, refresher TokenRefresher, secureCookies bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.BearerToken(c.GetHeader("Authorization"))
		fromCookie := false
		if token == "" {
			if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
				token = cookie
				fromCookie = true
			}
		}

		ctx := c.Request.Context()
		identity, err := idp.VerifyToken(ctx, token)
		if err != nil && refresher != nil && helpers.IsKind(err, helpers.KindUnauthorized) && (fromCookie || token == "") {
			identity, err = refreshSession(c, idp, refresher, secureCookies, logger)
		}
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(UserKey, identity)
		c.Next()
	}
}

func refreshSession(c *gin.Context, idp helpers.IdentityProvider, refresher TokenRefresher, secureCookies bool, logger *slog.Logger) (*helpers.Identity, error) {
	refreshToken, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		return nil, helpers.NewUnauthorizedError("Unauthorized - Invalid access token")
	}

	ctx := c.Request.Context()
	session, err := refresher.RefreshToken(ctx, refreshToken)
	if err != nil {
		logger.WarnContext(ctx, "Token refresh failed", "error", err)
		return nil, err
	}
	if session == nil || session.AccessToken == "" {
		return nil, helpers.NewUnauthorizedError("Unauthorized - Invalid refresh response")
	}

	SetSessionCookies(c, session, secureCookies)
	logger.InfoContext(ctx, "Token refreshed successfully", "user_id", session.User.ID, "expires_in", session.ExpiresIn)

	return idp.VerifyToken(ctx, session.AccessToken)
}

// SetSessionCookies stores the session tokens as http-only cookies.
func SetSessionCookies(c *gin.Context, session *types.TokenResponse, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, session.AccessToken, session.ExpiresIn, "/", "", secure, true)
	if session.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, session.RefreshToken, RefreshTokenMaxAge, "/", "", secure, true)
	}
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

// RequireRole aborts with 403 unless the authenticated caller holds role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := services.Authorize(CurrentUser(c), role); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identity stored by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *helpers.Identity {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*helpers.Identity)
	return identity
}
