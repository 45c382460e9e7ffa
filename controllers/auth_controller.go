package controllers

import (
	"net/http"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// SessionCookie describes how refresh tokens are handed to the browser.
type SessionCookie struct {
	Options utils.CookieOptions
	TTL     time.Duration
}

func writeSession(c *gin.Context, cookie SessionCookie, session *services.Session) {
	utils.SetRefreshCookie(c, cookie.Options, session.RefreshToken, cookie.TTL)
	c.JSON(http.StatusOK, gin.H{
		"accessToken": session.AccessToken,
		"user":        session.User,
	})
}

// POST /auth/register
func Register(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if !bindJSON(c, &body) {
			return
		}
		user, err := auth.Register(c.Request.Context(), body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// POST /auth/login
func Login(auth *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if !bindJSON(c, &body) {
			return
		}
		session, err := auth.Login(c.Request.Context(), body, c.ClientIP())
		if err != nil {
			respondError(c, err)
			return
		}
		writeSession(c, cookie, session)
	}
}

// POST /auth/refresh
func Refresh(auth *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(utils.RefreshCookieName)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
			return
		}
		session, err := auth.Refresh(c.Request.Context(), token)
		if err != nil {
			utils.ClearRefreshCookie(c, cookie.Options)
			respondError(c, err)
			return
		}
		writeSession(c, cookie, session)
	}
}

// POST /auth/logout
func Logout(auth *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(utils.RefreshCookieName)
		utils.ClearRefreshCookie(c, cookie.Options)

		// best effort revoke
		if err := auth.Logout(c.Request.Context(), token); err != nil {
			_ = c.Error(err)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /auth/forgot-password
func ForgotPassword(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ForgotPasswordDTO
		if !bindJSON(c, &body) {
			return
		}
		if err := auth.ForgotPassword(c.Request.Context(), body.Email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent."})
	}
}

// POST /auth/reset-password
func ResetPassword(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ResetPasswordDTO
		if !bindJSON(c, &body) {
			return
		}
		if err := auth.ResetPassword(c.Request.Context(), body); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /me/password
func ChangeMyPassword(auth *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.ChangeMyPasswordDTO
		if !bindJSON(c, &body) {
			return
		}
		if err := auth.ChangeMyPassword(c.Request.Context(), actor.ID, body); err != nil {
			respondError(c, err)
			return
		}
		utils.ClearRefreshCookie(c, cookie.Options)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /me/totp/setup
func SetupTOTP(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		setup, err := auth.SetupTOTP(c.Request.Context(), actor.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, setup)
	}
}

// POST /me/totp/enable and /me/totp/disable
func ToggleTOTP(auth *services.AuthService, enable bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.TOTPCodeDTO
		if !bindJSON(c, &body) {
			return
		}
		var err error
		if enable {
			err = auth.EnableTOTP(c.Request.Context(), actor.ID, body.Code)
		} else {
			err = auth.DisableTOTP(c.Request.Context(), actor.ID, body.Code)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"totpEnabled": enable})
	}
}
