package router

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/psds-microservice/helpdesk-service/api"
	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/handler"
)

type Handlers struct {
	Tickets  *handler.TicketHandler
	Profiles *handler.ProfileHandler
	Auth     *handler.AuthHandler
	Provider auth.Provider
	// Ready backs the readiness probe; nil means always ready.
	Ready    func(context.Context) error
	Log      *slog.Logger
}

func New(h Handlers) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog(h.Log))
	r.GET(paths.PathHealth, handler.Health)
	r.GET(paths.PathReady, handler.Ready(h.Ready))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/tickets", h.Tickets.Create)
		v1.GET("/tickets", h.Tickets.ListMine)
		v1.GET("/tickets/:id", h.Tickets.Get)

		v1.POST("/auth/signup", h.Auth.SignUp)
		v1.POST("/auth/signin", h.Auth.SignIn)
		v1.POST("/auth/recover", h.Auth.Recover)
		v1.POST("/auth/password", h.Auth.UpdatePassword)
	}

	session := v1.Group("", handler.RequireSession(h.Provider))
	{
		session.GET("/auth/session", h.Auth.Session)
		session.POST("/auth/signout", h.Auth.SignOut)
	}

	admin := v1.Group("/admin", handler.RequireSession(h.Provider))
	{
		admin.GET("/tickets", h.Tickets.AdminList)
		admin.POST("/tickets", h.Tickets.AdminCreate)
		admin.GET("/tickets/export", h.Tickets.Export)
		admin.POST("/tickets/import", h.Tickets.Import)
		admin.PUT("/tickets/:id", h.Tickets.Update)
		admin.DELETE("/tickets/:id", h.Tickets.Delete)

		admin.GET("/profiles", h.Profiles.List)
		admin.GET("/profiles/:id", h.Profiles.Get)
		admin.PUT("/profiles/:id", h.Profiles.Update)
		admin.DELETE("/profiles/:id", h.Profiles.Delete)
	}

	return r
}

func requestLog(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.LogAttrs(c.Request.Context(), slog.LevelDebug, "http: request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
