package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/middleware"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/services"
)

func Signup(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			abortWithError(c, helpers.NewValidationError("invalid request payload"))
			return
		}

		created, err := u.Signup(c.Request.Context(), &user)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(created, "Account created successfully"))
	}
}

// Login signs the user in, returns the session and mirrors its tokens into
// http-only cookies for browser clients.
func Login(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, helpers.NewValidationError("invalid request payload"))
			return
		}

		session, err := u.AuthenticateUser(c.Request.Context(), helpers.StringTrim(req.Email), req.Password)
		if err != nil {
			abortWithError(c, err)
			return
		}

		middleware.SetSessionCookies(c, session, secureCookies)

		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"access_token":  session.AccessToken,
			"refresh_token": session.RefreshToken,
			"expires_in":    session.ExpiresIn,
			"user": helpers.Identity{
				UserID: session.User.ID.String(),
				Email:  session.User.Email,
				Role:   helpers.RoleFromMetadata(session.User.UserMetadata),
			},
		}, "Login successful"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSessionCookies(c, secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out"))
	}
}

func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.CurrentUser(c)
		if identity == nil {
			abortWithError(c, helpers.NewUnauthorizedError("Unauthorized - Invalid access token"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"user_id":  identity.UserID,
			"email":    identity.Email,
			"name":     identity.Name,
			"role":     identity.GetSafeRole(),
			"is_admin": identity.IsAdmin(),
		}, ""))
	}
}

func InitDemo(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		seeded, err := u.SeedDemoAccounts(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(seeded, "Demo accounts ready"))
	}
}
