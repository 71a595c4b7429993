package server

import (
	"ctchen222/tictactoe-solo/internal/api/controller"
	"ctchen222/tictactoe-solo/internal/hub"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
)

const defaultPingInterval = 10 * time.Second

var tracer = otel.Tracer("server")

type Server struct {
	hub          *hub.Hub
	engine       *gin.Engine
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// NewServer builds the HTTP engine. Files under staticDir are served for
// any route not matched otherwise; an empty staticDir disables that.
func NewServer(h *hub.Hub, staticDir string) *Server {
	s := &Server{
		hub:    h,
		engine: gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pingInterval: defaultPingInterval,
	}
	s.registerHandlers(controller.NewSessionController(h), staticDir)
	return s
}

// Engine returns the handler to mount on an http.Server.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers(sessions *controller.SessionController, staticDir string) {
	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/ws", s.handleWebSocket)

	api := s.engine.Group("/api/v1")
	{
		api.POST("/sessions", sessions.Create)
		api.GET("/sessions/:id", sessions.Get)
		api.POST("/sessions/:id/moves", sessions.Move)
		api.POST("/sessions/:id/reset", sessions.Reset)
		api.DELETE("/sessions/:id", sessions.Delete)
	}

	if staticDir != "" {
		s.engine.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "HTTP request",
			"http.method", c.Request.Method,
			"http.path", c.Request.URL.Path,
			"http.status", c.Writer.Status(),
			"http.duration", time.Since(start),
		)
	}
}
