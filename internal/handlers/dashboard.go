package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/services"
)

type DashboardHandler struct {
	progressService *services.ProgressService
}

func NewDashboardHandler(progressService *services.ProgressService) *DashboardHandler {
	return &DashboardHandler{progressService: progressService}
}

// Progress godoc
// @Summary      Per-learner progress
// @Description  Per-category answer counts, accuracy and badge state for every learner
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.UserProgress
// @Failure      403 {object} ErrorResponse
// @Router       /api/dashboard/progress [get]
func (h *DashboardHandler) Progress(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	progress, err := h.progressService.ListProgress(c.Request.Context(), ident)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Export godoc
// @Summary      Export progress as CSV
// @Tags         dashboard
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200 {string} string "CSV payload"
// @Failure      403 {object} ErrorResponse
// @Router       /api/dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	ident := middleware.MustIdentity(c)

	csv, err := h.progressService.ExportCSV(c.Request.Context(), ident)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=progress.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
