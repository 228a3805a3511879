package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Timer stream over WebSocket (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerInstanceRoutes(api)
		h.registerEntityRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerInstanceRoutes(api *gin.RouterGroup) {
	instances := api.Group("/instances")
	{
		instances.POST("/", h.createInstance)
		instances.GET("/", h.listInstances)
		instances.GET("/:id", h.describeInstance)
		instances.DELETE("/:id", h.removeInstance)

		instances.GET("/:id/controls", h.getControls)
		instances.PUT("/:id/controls", h.setControls)
		instances.GET("/:id/flags", h.getFlags)
		instances.PUT("/:id/flags", h.setFlags)

		// Body example: {"temperature_c":22.5,"duration":"02:30:00"}
		instances.POST("/:id/boost/start", h.startBoost)
		instances.POST("/:id/boost/finish", h.finishBoost)
		instances.GET("/:id/timer", h.getTimer)
	}
}

func (h *Handler) registerEntityRoutes(api *gin.RouterGroup) {
	entities := api.Group("/entities")
	{
		entities.GET("/", h.listEntities)
		entities.GET("/:id", h.getEntity)
		entities.PUT("/:id", h.updateEntity)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
