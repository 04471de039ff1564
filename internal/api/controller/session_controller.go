package controller

import (
	"context"
	"ctchen222/tictactoe-solo/internal/api/models"
	"ctchen222/tictactoe-solo/internal/api/response"
	"ctchen222/tictactoe-solo/internal/api/service"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/hub"
	"ctchen222/tictactoe-solo/internal/session"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionController handles session-related HTTP requests.
type SessionController struct {
	sessionService service.SessionService
}

// NewSessionController creates a new SessionController.
func NewSessionController(sessionService service.SessionService) *SessionController {
	return &SessionController{
		sessionService: sessionService,
	}
}

// Create handles POST /api/sessions.
func (sc *SessionController) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := sc.sessionService.Create(c.Request.Context(), req.Difficulty)
	if err != nil {
		errorResponse(c, err)
		return
	}

	response.CreatedResponse(c, res)
}

// Get handles GET /api/sessions/:id.
func (sc *SessionController) Get(c *gin.Context) {
	state, err := sc.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	response.SuccessResponse(c, state)
}

// Move handles POST /api/sessions/:id/moves.
func (sc *SessionController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := sc.sessionService.Move(c.Request.Context(), c.Param("id"), *req.Index)
	if err != nil {
		errorResponse(c, err)
		return
	}

	response.SuccessResponse(c, res)
}

// Reset handles POST /api/sessions/:id/reset.
func (sc *SessionController) Reset(c *gin.Context) {
	state, err := sc.sessionService.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	response.SuccessResponse(c, state)
}

// SetDifficulty handles PUT /api/sessions/:id/difficulty.
func (sc *SessionController) SetDifficulty(c *gin.Context) {
	var req models.DifficultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := sc.sessionService.SetDifficulty(c.Request.Context(), c.Param("id"), req.Difficulty)
	if err != nil {
		errorResponse(c, err)
		return
	}

	response.SuccessResponse(c, state)
}

// End handles DELETE /api/sessions/:id.
func (sc *SessionController) End(c *gin.Context) {
	if err := sc.sessionService.End(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, err)
		return
	}

	response.SuccessResponse(c, gin.H{"message": "Session ended"})
}

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, hub.ErrSessionNotFound), errors.Is(err, session.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, bot.ErrUnknownDifficulty):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "session request failed", "path", c.FullPath(), "error", err)
	}
	response.ErrorResponse(c, code, err.Error())
}
