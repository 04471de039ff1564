package server

import (
	"ctchen222/tictactoe-solo/internal/api/controller"
	"ctchen222/tictactoe-solo/internal/api/service"
	"ctchen222/tictactoe-solo/internal/hub"
	"ctchen222/tictactoe-solo/internal/validator"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playvalidator "github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

type Server struct {
	engine            *gin.Engine
	hub               *hub.Hub
	sessionController *controller.SessionController
	tokens            service.TokenService
	upgrader          websocket.Upgrader
	webDir            string
}

func NewServer(h *hub.Hub, sessionController *controller.SessionController, tokens service.TokenService, webDir string) (*Server, error) {
	if v, ok := binding.Validator.Engine().(*playvalidator.Validate); ok {
		if err := validator.RegisterCustom(v); err != nil {
			return nil, fmt.Errorf("failed to register gin validations: %w", err)
		}
	}

	s := &Server{
		engine:            gin.New(),
		hub:               h,
		sessionController: sessionController,
		tokens:            tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		webDir: webDir,
	}
	s.registerRoutes()
	return s, nil
}

// Engine returns the HTTP handler.
func (s *Server) Engine() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.Use(gin.Recovery(), traceRequests())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.hub.Len()})
	})

	api := s.engine.Group("/api")
	api.POST("/sessions", s.sessionController.Create)

	sessions := api.Group("/sessions/:id", s.requireSessionToken())
	sessions.GET("", s.sessionController.Get)
	sessions.POST("/moves", s.sessionController.Move)
	sessions.POST("/reset", s.sessionController.Reset)
	sessions.PUT("/difficulty", s.sessionController.SetDifficulty)
	sessions.DELETE("", s.sessionController.End)
	sessions.GET("/ws", s.handleWebSocket)

	fs := http.FileServer(http.Dir(s.webDir))
	s.engine.NoRoute(gin.WrapH(fs))
}

// traceRequests opens a server span per request.
func traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "static"
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		slog.DebugContext(ctx, "request handled", "method", c.Request.Method, "route", route, "status", status)
	}
}
