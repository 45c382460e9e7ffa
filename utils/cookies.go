package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const RefreshCookieName = "refreshToken"

type CookieOptions struct {
	Secure bool
	Domain string
}

func SetRefreshCookie(c *gin.Context, opts CookieOptions, token string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/auth",
		Domain:   opts.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteNoneMode, // for cross-site
	})
}

func ClearRefreshCookie(c *gin.Context, opts CookieOptions) {
	c.SetCookie(RefreshCookieName, "", -1, "/auth", opts.Domain, opts.Secure, true)
}
