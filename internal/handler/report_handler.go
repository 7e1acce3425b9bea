package handler

import (
	"net/http"

	"assistix/internal/service"
	"assistix/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	requestService service.RequestService
	auth           gin.HandlerFunc
}

func NewReportHandler(requestService service.RequestService, auth gin.HandlerFunc) *ReportHandler {
	return &ReportHandler{requestService: requestService, auth: auth}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/summary", h.auth, h.GetSummary)
	}
}

// @Summary      Request summary
// @Description  Total and per-status counts with percentage shares
// @Tags         reports
// @Produce      json
// @Success      200 {object} response.Response{data=model.SummaryReport}
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      500 {object} response.Response "Internal server error"
// @Security     BearerAuth
// @Router       /api/reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	report, err := h.requestService.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
