package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Signup(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		renderPage(c, http.StatusOK, "users/signup.html", gin.H{"form": &form.SignupForm{}})
		return
	}

	var f form.SignupForm
	_ = c.ShouldBind(&f)
	if !f.Valid() {
		renderPage(c, http.StatusOK, "users/signup.html", gin.H{"form": &f})
		return
	}
	_, token, err := h.svc.Signup(c.Request.Context(), service.SignupInput{
		Username:  f.Username,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Password:  f.Password1,
	})
	if errors.Is(err, service.ErrUsernameTaken) {
		f.Errors.Add("username", form.MsgUsernameTaken)
		renderPage(c, http.StatusOK, "users/signup.html", gin.H{"form": &f})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	if err := setSessionToken(c, token); err != nil {
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *UserHandler) Login(c *gin.Context) {
	next := c.Query("next")
	if c.Request.Method != http.MethodPost {
		renderPage(c, http.StatusOK, "users/login.html", gin.H{"form": &form.LoginForm{}, "next": next})
		return
	}

	if v := c.PostForm("next"); v != "" {
		next = v
	}
	var f form.LoginForm
	_ = c.ShouldBind(&f)
	if !f.Valid() {
		renderPage(c, http.StatusOK, "users/login.html", gin.H{"form": &f, "next": next})
		return
	}
	_, token, err := h.svc.Login(c.Request.Context(), f.Username, f.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		f.Errors.Add(form.NonField, form.MsgBadLogin)
		renderPage(c, http.StatusOK, "users/login.html", gin.H{"form": &f, "next": next})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	if err := setSessionToken(c, token); err != nil {
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, SafeNext(next))
}

func (h *UserHandler) Logout(c *gin.Context) {
	if user := middleware.CurrentUser(c); user != nil {
		if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
			_ = c.Error(err)
		}
		c.Set(middleware.ContextUserKey, nil)
	}
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	renderPage(c, http.StatusOK, "users/logged_out.html", nil)
}

func setSessionToken(c *gin.Context, token string) error {
	session := sessions.Default(c)
	session.Set(middleware.SessionTokenKey, token)
	return session.Save()
}

// SafeNext only honours same-site absolute paths, anything else goes home.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
