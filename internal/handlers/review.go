package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/services"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// PendingQuizzes godoc
// @Summary      List quizzes awaiting review
// @Tags         review
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.PendingQuiz
// @Failure      403 {object} ErrorResponse
// @Router       /api/quizzes/pending [get]
func (h *ReviewHandler) PendingQuizzes(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	pending, err := h.reviewService.ListPendingQuizzes(c.Request.Context(), ident)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

// ReviewQuiz godoc
// @Summary      Review a quiz
// @Description  Approve, reject or edit a quiz. Passing the last-seen updated_at enables the optimistic-lock check.
// @Tags         review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Quiz ID"
// @Param        request body services.QuizReviewInput true "Review action"
// @Success      200 {object} models.Quiz
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/quizzes/{id}/review [put]
func (h *ReviewHandler) ReviewQuiz(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	var input services.QuizReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	quiz, err := h.reviewService.ReviewQuiz(c.Request.Context(), ident, c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// PendingScenarios godoc
// @Summary      List scenarios awaiting review
// @Tags         review
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.PendingScenario
// @Failure      403 {object} ErrorResponse
// @Router       /api/scenarios/pending [get]
func (h *ReviewHandler) PendingScenarios(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	pending, err := h.reviewService.ListPendingScenarios(c.Request.Context(), ident)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

// ReviewScenario godoc
// @Summary      Review a scenario
// @Tags         review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Scenario ID"
// @Param        request body services.ScenarioReviewInput true "Review action"
// @Success      200 {object} models.Scenario
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/scenarios/{id}/review [put]
func (h *ReviewHandler) ReviewScenario(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	var input services.ScenarioReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	scenario, err := h.reviewService.ReviewScenario(c.Request.Context(), ident, c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}
