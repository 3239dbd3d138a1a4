package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/services"
)

type ScenarioHandler struct {
	sessionService *services.SessionService
}

func NewScenarioHandler(sessionService *services.SessionService) *ScenarioHandler {
	return &ScenarioHandler{sessionService: sessionService}
}

// StartSession godoc
// @Summary      Start a scenario session
// @Description  Get a shuffled batch of approved workplace scenarios plus a fresh session id
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Category ID"
// @Param        count query int false "Batch size" default(10)
// @Success      200 {object} services.ScenarioBatch
// @Router       /api/scenarios [get]
func (h *ScenarioHandler) StartSession(c *gin.Context) {
	categoryID := c.Query("category")
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(services.DefaultSessionSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid count"})
		return
	}

	batch, err := h.sessionService.StartScenarioSession(c.Request.Context(), categoryID, count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type JudgeScenarioRequest struct {
	Judgment  string `json:"judgment" binding:"required" example:"violate"`
	SessionID string `json:"session_id" binding:"required" example:"6f1e0e1a-6f5e-4f7e-9f1a-1b2c3d4e5f60"`
}

// Judge godoc
// @Summary      Judge a scenario
// @Description  Submit a pass/violate judgment, record the answer event and return the explanation
// @Tags         scenarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Scenario ID"
// @Param        request body JudgeScenarioRequest true "Judgment"
// @Success      200 {object} services.JudgmentResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/scenarios/{id}/judge [post]
func (h *ScenarioHandler) Judge(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	var req JudgeScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.sessionService.JudgeScenario(c.Request.Context(), ident.UserID, c.Param("id"), req.Judgment, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
