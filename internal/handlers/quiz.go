package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/services"
)

type QuizHandler struct {
	sessionService *services.SessionService
}

func NewQuizHandler(sessionService *services.SessionService) *QuizHandler {
	return &QuizHandler{sessionService: sessionService}
}

// StartSession godoc
// @Summary      Start a quiz session
// @Description  Get a shuffled batch of approved quizzes, each reduced to two choices, plus a fresh session id. An empty pool returns a message instead of an error.
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Category ID"
// @Param        count query int false "Batch size" default(10)
// @Success      200 {object} services.QuizBatch
// @Router       /api/quizzes [get]
func (h *QuizHandler) StartSession(c *gin.Context) {
	categoryID := c.Query("category")
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(services.DefaultSessionSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid count"})
		return
	}

	batch, err := h.sessionService.StartQuizSession(c.Request.Context(), categoryID, count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type SubmitAnswerRequest struct {
	ChoiceID  string `json:"choice_id" binding:"required" example:"a"`
	SessionID string `json:"session_id" binding:"required" example:"6f1e0e1a-6f5e-4f7e-9f1a-1b2c3d4e5f60"`
}

// SubmitAnswer godoc
// @Summary      Answer a quiz
// @Description  Check the chosen answer, record the answer event and return the explanation
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Quiz ID"
// @Param        request body SubmitAnswerRequest true "Answer"
// @Success      200 {object} services.AnswerResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/quizzes/{id}/answer [post]
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.sessionService.SubmitQuizAnswer(c.Request.Context(), ident.UserID, c.Param("id"), req.ChoiceID, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
