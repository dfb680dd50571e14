package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yatube/internal/model"
	"yatube/internal/service"
)

const (
	ContextUserKey  = "user"
	SessionTokenKey = "token"
	LoginURL        = "/auth/login/"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// LoadUser resolves the session token, if any, to the current user. A
// rejected token is dropped from the session. When the lookup itself fails
// the session is kept and only this request continues anonymously.
func LoadUser(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(SessionTokenKey).(string)
		if token == "" {
			c.Next()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if errors.Is(err, service.ErrSessionInvalid) {
			session.Delete(SessionTokenKey)
			_ = session.Save()
			c.Next()
			return
		}
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("authenticate session")
			c.Next()
			return
		}

		c.Set(ContextUserKey, user)
		zerolog.Ctx(c.Request.Context()).UpdateContext(func(l zerolog.Context) zerolog.Context {
			return l.Uint64("user_id", user.ID)
		})
		c.Next()
	}
}

// LoginRequired redirects anonymous visitors to the login page, keeping the
// requested path in ?next=.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private")
		c.Next()
	}
}

// CurrentUser is nil for anonymous requests.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
