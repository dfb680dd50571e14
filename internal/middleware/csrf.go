package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	CSRFSessionKey = "csrf_token"
	CSRFFormField  = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
	ContextCSRFKey = "csrf_token"
)

// CSRF keeps a random token in the session and expects it back, as the
// csrf_token form field or the X-CSRF-Token header, on every unsafe request.
// onFail renders the refusal; the chain is aborted after it.
func CSRF(onFail gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(CSRFSessionKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(CSRFSessionKey, token)
			if err := session.Save(); err != nil {
				zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("save csrf token")
			}
		}
		c.Set(ContextCSRFKey, token)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sent := c.GetHeader(CSRFHeader)
		if sent == "" {
			if err := parseForm(c); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					c.String(http.StatusRequestEntityTooLarge, "Request body too large.")
					c.Abort()
					return
				}
			}
			sent = c.Request.PostFormValue(CSRFFormField)
		}
		if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			zerolog.Ctx(c.Request.Context()).Warn().Str("path", c.Request.URL.Path).Msg("csrf token mismatch")
			if onFail != nil {
				onFail(c)
			} else {
				c.Status(http.StatusForbidden)
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// CSRFToken is the token forms must echo back.
func CSRFToken(c *gin.Context) string {
	return c.GetString(ContextCSRFKey)
}

func parseForm(c *gin.Context) error {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		_, err := c.MultipartForm()
		return err
	}
	return c.Request.ParseForm()
}
