package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yatube/internal/middleware"
)

// renderPage adds the values every page needs to data and renders name.
func renderPage(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["user"] = middleware.CurrentUser(c)
	data["path"] = c.Request.URL.Path
	data["csrf_token"] = middleware.CSRFToken(c)
	c.HTML(status, name, data)
}

// Forbidden answers a form post that failed the CSRF check.
func Forbidden(c *gin.Context) {
	renderPage(c, http.StatusForbidden, "core/403.html", nil)
}

func NotFound(c *gin.Context) {
	renderPage(c, http.StatusNotFound, "core/404.html", nil)
}

func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	renderPage(c, http.StatusInternalServerError, "core/500.html", nil)
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil
}
