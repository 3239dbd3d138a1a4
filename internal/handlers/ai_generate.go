package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/services"
)

type AIGenerateHandler struct {
	aiService *services.AIGenerateService
}

func NewAIGenerateHandler(aiService *services.AIGenerateService) *AIGenerateHandler {
	return &AIGenerateHandler{aiService: aiService}
}

// maxUploadBytes caps manual uploads; the prompt only uses the head anyway.
const maxUploadBytes = 1 << 20

// Generate godoc
// @Summary      Generate quiz drafts from a manual
// @Description  Upload a text excerpt of a lab manual; the model drafts quizzes that enter the review queue as pending
// @Tags         quizzes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Manual text file"
// @Param        categoryId formData string true "Category ID"
// @Param        count formData int false "Number of quizzes" default(5)
// @Success      201 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /api/quizzes/generate [post]
func (h *AIGenerateHandler) Generate(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}
	categoryID := c.PostForm("categoryId")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "categoryId is required"})
		return
	}
	count, _ := strconv.Atoi(c.DefaultPostForm("count", "5"))

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read uploaded file"})
		return
	}
	defer file.Close()

	manual, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read uploaded file"})
		return
	}

	quizzes, err := h.aiService.GenerateQuizzes(c.Request.Context(), ident, categoryID, string(manual), count)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("generated %d quiz drafts", len(quizzes)),
		"quizzes": quizzes,
	})
}
