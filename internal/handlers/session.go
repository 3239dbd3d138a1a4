package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/services"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Complete godoc
// @Summary      Complete a session
// @Description  Aggregate the session's answers into total/correct/score and grant a badge on a first perfect clear
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} services.SessionResult
// @Failure      404 {object} ErrorResponse
// @Router       /api/sessions/{sessionId}/complete [post]
func (h *SessionHandler) Complete(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	result, err := h.sessionService.CompleteSession(c.Request.Context(), ident.UserID, c.Param("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListBadges godoc
// @Summary      List my badges
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Badge
// @Router       /api/badges [get]
func (h *SessionHandler) ListBadges(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	badges, err := h.sessionService.ListBadges(c.Request.Context(), ident.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}
