package controller

import (
	"context"
	"ctchen222/tictactoe-solo/internal/api/models"
	"ctchen222/tictactoe-solo/internal/api/response"
	"ctchen222/tictactoe-solo/internal/session"
	"ctchen222/tictactoe-solo/pkg/proto"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const msgSessionNotFound = "session not found"

// SessionStore is the part of the hub the controller needs.
type SessionStore interface {
	Create(ctx context.Context, notifier session.Notifier) *session.Session
	Get(id string) (*session.Session, bool)
	Remove(ctx context.Context, id string) bool
}

// SessionController handles game session HTTP requests.
type SessionController struct {
	store SessionStore
}

// NewSessionController creates a new SessionController.
func NewSessionController(store SessionStore) *SessionController {
	return &SessionController{
		store: store,
	}
}

// Create starts a session driven over HTTP.
func (sc *SessionController) Create(c *gin.Context) {
	ctx := c.Request.Context()
	s := sc.store.Create(ctx, nil)
	sc.respondState(c, http.StatusOK, s)
}

// Get returns the current state of a session.
func (sc *SessionController) Get(c *gin.Context) {
	s, ok := sc.lookup(c)
	if !ok {
		return
	}
	sc.respondState(c, http.StatusOK, s)
}

// Move selects a cell for the player. Moves the rules reject leave the state
// unchanged; the opponent answers after its delay.
func (sc *SessionController) Move(c *gin.Context) {
	s, ok := sc.lookup(c)
	if !ok {
		return
	}

	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.SelectCell(c.Request.Context(), *req.Index); err != nil {
		sc.respondError(c, err)
		return
	}
	sc.respondState(c, http.StatusAccepted, s)
}

// Reset clears the board.
func (sc *SessionController) Reset(c *gin.Context) {
	s, ok := sc.lookup(c)
	if !ok {
		return
	}

	if err := s.Reset(c.Request.Context()); err != nil {
		sc.respondError(c, err)
		return
	}
	sc.respondState(c, http.StatusAccepted, s)
}

// Delete stops a session.
func (sc *SessionController) Delete(c *gin.Context) {
	if !sc.store.Remove(c.Request.Context(), c.Param("id")) {
		response.ErrorResponse(c, http.StatusNotFound, msgSessionNotFound)
		return
	}
	response.SuccessResponse(c, gin.H{"message": "Session deleted"})
}

func (sc *SessionController) lookup(c *gin.Context) (*session.Session, bool) {
	s, ok := sc.store.Get(c.Param("id"))
	if !ok {
		response.ErrorResponse(c, http.StatusNotFound, msgSessionNotFound)
		return nil, false
	}
	return s, true
}

func (sc *SessionController) respondState(c *gin.Context, code int, s *session.Session) {
	state, err := s.Snapshot(c.Request.Context())
	if err != nil {
		sc.respondError(c, err)
		return
	}
	response.SuccessResponseWithCode(c, code, proto.StateMessage(s.ID, state))
}

func (sc *SessionController) respondError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrClosed) {
		response.ErrorResponse(c, http.StatusNotFound, msgSessionNotFound)
		return
	}
	response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
