package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"yatube/internal/form"
	"yatube/internal/handler"
	"yatube/internal/middleware"
	"yatube/internal/service"
)

type Options struct {
	DB       *gorm.DB
	Posts    *service.PostService
	Groups   *service.GroupService
	Users    *service.UserService
	Images   form.ImageSaver
	Renderer render.HTMLRender
	Logger   zerolog.Logger

	SessionSecret string
	SecureCookie  bool
	TokenMaxAge   int
	MediaDir      string
	MediaURL      string
	CORSOrigins   []string

	LoginRateLimit float64
	LoginRateBurst int
	MaxBodyBytes   int64
}

const DefaultMaxBodyBytes = 10 << 20

func InitRouter(opt Options) *gin.Engine {
	r := gin.New()
	r.HTMLRender = opt.Renderer
	r.RedirectTrailingSlash = true
	r.MaxMultipartMemory = 8 << 20

	if opt.MaxBodyBytes <= 0 {
		opt.MaxBodyBytes = DefaultMaxBodyBytes
	}
	r.Use(middleware.RequestLogger(opt.Logger), gin.Recovery(), middleware.BodyLimit(opt.MaxBodyBytes))
	if len(opt.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opt.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.CSRFHeader},
			AllowCredentials: true,
		}))
	}

	store := cookie.NewStore([]byte(opt.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   opt.TokenMaxAge,
		HttpOnly: true,
		Secure:   opt.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("yatube_session", store))

	health := handler.NewHealthHandler(opt.DB)
	r.GET("/health", health.Health)
	if opt.MediaDir != "" {
		r.Static(strings.TrimRight(opt.MediaURL, "/"), opt.MediaDir)
	}

	r.Use(middleware.LoadUser(opt.Users), middleware.CSRF(handler.Forbidden))
	r.NoRoute(handler.NotFound)

	post := handler.NewPostHandler(opt.Posts, opt.Groups, opt.Images)
	user := handler.NewUserHandler(opt.Users)

	r.GET("/", post.Index)
	r.GET("/group/:slug/", post.GroupPosts)
	r.GET("/profile/:username/", post.Profile)
	r.GET("/posts/:id/", post.Detail)

	authorGroup := r.Group("/")
	authorGroup.Use(middleware.LoginRequired())
	{
		authorGroup.Match([]string{http.MethodGet, http.MethodPost}, "/create/", post.Create)
		authorGroup.Match([]string{http.MethodGet, http.MethodPost}, "/posts/:id/edit/", post.Edit)
	}

	authGroup := r.Group("/auth")
	{
		throttled := authGroup.Group("/")
		if opt.LoginRateLimit > 0 {
			throttled.Use(middleware.NewRateLimiter(opt.LoginRateLimit, opt.LoginRateBurst).Limit())
		}
		throttled.Match([]string{http.MethodGet, http.MethodPost}, "/signup/", user.Signup)
		throttled.Match([]string{http.MethodGet, http.MethodPost}, "/login/", user.Login)
		authGroup.Match([]string{http.MethodGet, http.MethodPost}, "/logout/", user.Logout)
	}

	return r
}
