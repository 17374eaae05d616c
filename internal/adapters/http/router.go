package http

import (
	"context"
	"net/http"

	"github.com/dkeye/devcircle/internal/adapters/signal"
	"github.com/dkeye/devcircle/internal/app"
	"github.com/dkeye/devcircle/internal/auth"
	"github.com/dkeye/devcircle/internal/config"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/search"
	"github.com/dkeye/devcircle/internal/service"
	"github.com/dkeye/devcircle/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Deps is everything the routes serve from.
type Deps struct {
	Store  *storage.Store
	Index  *search.Index
	Users  *service.UserService
	Tokens *auth.Issuer
	Relay  *app.Relay
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	registerJSONFieldNames()

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("DevCircleSessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(ErrorMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	authn := authenticator{tokens: deps.Tokens, users: deps.Users}
	admin := []gin.HandlerFunc{authn.Required(), RequireAdmin()}

	api := r.Group("/api")

	accounts := accountHandlers{users: deps.Users, store: deps.Store}
	api.POST("/auth/register", accounts.register)
	api.POST("/auth/login", accounts.login)
	api.GET("/auth/me", authn.Required(), accounts.me)
	api.GET("/profile/:userId", accounts.getProfile)
	api.PUT("/profile", authn.Required(), accounts.putProfile)

	(&Resource[domain.Project, *domain.Project]{Coll: deps.Store.Projects}).
		Mount(api.Group("/projects"), authn.Required())

	ide := api.Group("/ide/projects", authn.Required())
	ws := workspaceHandlers{store: deps.Store}
	ide.GET("", ws.list)
	ide.GET("/:id", ws.get)
	ide.POST("", ws.create)
	ide.PUT("/:id", ws.update)
	ide.DELETE("/:id", ws.remove)
	ide.POST("/:id/collaborators", ws.addCollaborator)

	progress := api.Group("/progress", authn.Required())
	ph := progressHandlers{store: deps.Store}
	progress.GET("", ph.get)
	progress.PUT("/tracks/:track/topics/:topicId", ph.complete)
	progress.DELETE("/tracks/:track/topics/:topicId", ph.uncomplete)

	directory(deps.Store.APIs, deps.Index).Mount(api.Group("/apis"), admin...)
	directory(deps.Store.Tools, deps.Index).Mount(api.Group("/tools"), admin...)
	directory(deps.Store.Topics, deps.Index).Mount(api.Group("/topics"), admin...)
	directory(deps.Store.Roadmaps, deps.Index).Mount(api.Group("/roadmaps"), admin...)

	fb := feedbackResource(deps.Store)
	feedback := api.Group("/feedback")
	feedback.POST("", authn.Optional(), fb.Create)
	feedback.GET("", chain(admin, fb.List)...)
	feedback.GET("/:id", chain(admin, fb.Get)...)
	feedback.PUT("/:id", chain(admin, fb.Update)...)
	feedback.DELETE("/:id", chain(admin, fb.Delete)...)

	(&Resource[domain.Entry, *domain.Entry]{Coll: deps.Store.Entries}).Mount(api.Group("/entries"))

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": deps.Relay.Rooms.List()})
	})

	collab := signal.NewCollabWSController(deps.Relay, cfg)
	api.GET("/ws/collab", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString(ctxClientToken)).Msg("ws collab endpoint hit")
		collab.HandleCollab(ctx, c)
	})

	return r
}
