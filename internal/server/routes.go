package server

import (
	"net/http"

	"chat-realtime/internal/server/middleware"
	"chat-realtime/internal/service"
	"chat-realtime/internal/websocket"

	"github.com/gin-gonic/gin"
)

// Router wires the HTTP surface: the WebSocket endpoint plus the few
// operational routes the realtime layer owns.
type Router struct {
	engine    *gin.Engine
	sessions  *websocket.SessionHandler
	presence  *service.Presence
	jwtSecret string
}

func NewRouter(sessions *websocket.SessionHandler, presence *service.Presence, jwtSecret string) *Router {
	return &Router{
		engine:    gin.New(),
		sessions:  sessions,
		presence:  presence,
		jwtSecret: jwtSecret,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())

	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ws := r.engine.Group("/ws")
	ws.Use(middleware.WSAuth(r.jwtSecret))
	ws.GET("", r.serveWS)

	api := r.engine.Group("/api/v1")
	api.Use(middleware.Auth(r.jwtSecret))
	api.GET("/presence/:userId", r.getPresence)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) serveWS(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	username := c.GetString(middleware.ContextUsername)
	r.sessions.ServeWS(c.Writer, c.Request, userID, username)
}

func (r *Router) getPresence(c *gin.Context) {
	userID := c.Param("userId")

	status, err := r.presence.Status(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "status": status})
}
