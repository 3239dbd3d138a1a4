package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/services"
)

type CategoryHandler struct {
	sessionService *services.SessionService
}

func NewCategoryHandler(sessionService *services.SessionService) *CategoryHandler {
	return &CategoryHandler{sessionService: sessionService}
}

// ListCategories godoc
// @Summary      List categories
// @Description  Get all training categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Category
// @Router       /api/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.sessionService.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}
