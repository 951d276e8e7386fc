package router

import (
	"time"

	"promptdir/internal/config"
	"promptdir/internal/events"
	"promptdir/internal/handlers"
	"promptdir/internal/identity"
	"promptdir/internal/logger"
	"promptdir/internal/middleware"
	"promptdir/internal/observability"
	"promptdir/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const sessionName = "promptdir_session"

type Deps struct {
	Log      *logger.Logger
	Verifier *identity.Verifier // nil rejects every bearer token
	Prompts  *services.PromptService
	Comments *services.CommentService
	Bus      events.Bus
	Stopping <-chan struct{} // closed on shutdown; ends open event streams
	SiteURL  string          // defaults to cfg.SiteURL
}

// NewEngine builds the gin engine with the shared middleware stack and all routes.
func NewEngine(cfg *config.Config, d Deps) *gin.Engine {
	if d.SiteURL == "" {
		d.SiteURL = cfg.SiteURL
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}
	r.Use(middleware.RequestLogger(d.Log))
	if len(cfg.CORS.Origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.Origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))

	RegisterRoutes(r, d)
	return r
}

// RegisterRoutes mounts the JSON API. The engine must already carry the sessions
// middleware, which the like endpoints depend on.
func RegisterRoutes(r *gin.Engine, d Deps) {
	promptHandler := handlers.NewPromptHandler(d.Prompts, d.Log)
	voteHandler := handlers.NewVoteHandler(d.Prompts, d.Log)
	commentHandler := handlers.NewCommentHandler(d.Comments, d.Log)
	eventsHandler := handlers.NewEventsHandler(d.Bus, d.Stopping, d.Log)
	seoHandler := handlers.NewSEOHandler(d.Prompts, d.SiteURL, d.Log)

	r.GET("/healthz", handlers.Health)
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	api := r.Group("/api")
	api.Use(middleware.LoadIdentity(d.Verifier, d.Log))
	{
		api.GET("/categories", promptHandler.Categories) // category catalog
		api.GET("/events", eventsHandler.Stream)         // server-sent change events

		api.GET("/prompts", promptHandler.Search)          // search visible prompts
		api.POST("/prompts", promptHandler.Create)         // private prompts need a login, checked by the service
		api.GET("/prompts/private", promptHandler.Private) // caller's private prompts
		api.GET("/prompts/slug/:slug", promptHandler.BySlug)
		api.GET("/prompts/:id", promptHandler.Get)
		api.POST("/prompts/:id/rate", voteHandler.Rate)
		api.POST("/prompts/:id/like", voteHandler.Like)
		api.DELETE("/prompts/:id/like", voteHandler.Unlike)
		api.GET("/prompts/:id/comments", commentHandler.List)
	}

	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.PATCH("/prompts/:id", promptHandler.Update)
		authorized.DELETE("/prompts/:id", promptHandler.Delete)
		authorized.POST("/prompts/:id/comments", commentHandler.Create)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
	}
}
