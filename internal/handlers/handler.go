package handlers

import (
	"net/http"
	"time"

	"session_auth/internal/logger"
	"session_auth/internal/metrics"
	"session_auth/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const defaultCookieName = "sid"

// Config carries the HTTP-facing settings of the handler.
type Config struct {
	CookieName     string
	Secret         string
	Secure         bool
	MaxAge         time.Duration
	AllowedOrigins []string
	Metrics        *metrics.Metrics
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	cfg      Config
	metrics  *metrics.Metrics
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg Config) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	return &Handler{services: services, log: log, cfg: cfg, metrics: cfg.Metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestID, h.accessLog)
	router.Use(cors.New(h.corsConfig()))
	router.Use(sessions.Sessions(h.cfg.CookieName, h.cookieStore()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	h.registerAuthRoutes(router)
	h.registerSessionRoutes(router)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.GET("/home", h.home)
	r.GET("/all", h.listUsers)
}

func (h *Handler) registerSessionRoutes(r *gin.Engine) {
	protected := r.Group("/", h.requireSession)
	{
		protected.GET("/events", h.listEvents)
		protected.GET("/ws", h.wsConnect)
	}
}

func (h *Handler) cookieStore() sessions.Store {
	store := cookie.NewStore([]byte(h.cfg.Secret))
	store.Options(h.cookieOptions(int(h.cfg.MaxAge.Seconds())))
	return store
}

func (h *Handler) cookieOptions(maxAge int) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// corsConfig allows any origin without credentials for "*", otherwise the
// listed origins with credentials.
func (h *Handler) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}

	origins := h.cfg.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// @Summary  Health check
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
