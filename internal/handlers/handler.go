package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *EventHub
	metrics  http.Handler
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. hub and
// metrics may be nil; their routes are then not registered.
func NewHandler(services *service.Service, hub *EventHub, metrics http.Handler, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, metrics: metrics, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Event stream on the same port
	if h.hub != nil {
		router.GET("/ws", h.requireUser, h.wsConnect)
	}

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
	api := r.Group("/api/v1", h.requireUser)
	{
		h.registerZoneRoutes(api)
		h.registerEventRoutes(api)
	}
}

func (h *Handler) registerZoneRoutes(api *gin.RouterGroup) {
	zones := api.Group("/zones")
	{
		zones.GET("", h.listZones)
		zones.GET("/:zone", h.getZone)
		zones.GET("/:zone/setpoint", h.getSetpoint)
		zones.GET("/:zone/next", h.getNextSetpoint)

		zones.GET("/:zone/schedules", h.listSchedules)
		zones.POST("/:zone/schedules", h.addSchedule)
		zones.PATCH("/:zone/schedules/:id", h.updateSchedule)
		zones.DELETE("/:zone/schedules/:id", h.deleteSchedule)
		// Body example: {"enabled":false}
		zones.POST("/:zone/schedules/:id/toggle", h.toggleSchedule)

		// Body example: {"mode":"temporary","temperature":62,"until":"2025-01-06T18:00:00Z"}
		zones.PUT("/:zone/hold", h.setHold)
		zones.DELETE("/:zone/hold", h.clearHold)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	api.GET("/events", h.getEvents)
}
