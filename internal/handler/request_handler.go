package handler

import (
	"errors"
	"net/http"
	"strconv"

	"assistix/internal/middleware"
	"assistix/internal/model"
	"assistix/internal/service"
	"assistix/pkg/pagination"
	"assistix/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
	auth           gin.HandlerFunc
}

func NewRequestHandler(requestService service.RequestService, auth gin.HandlerFunc) *RequestHandler {
	return &RequestHandler{requestService: requestService, auth: auth}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	requests.Use(h.auth)
	{
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.PUT("/:id/status", h.UpdateStatus)
		requests.PUT("/:id/permission", h.TogglePermission)
	}
}

type UpdateStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

type PermissionResponse struct {
	ID         int64 `json:"id"`
	CanMessage bool  `json:"can_message"`
}

// ListRequests returns requests newest first
// @Summary      List requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status query string false "waiting, accepted, denied, done or cancelled"
// @Param        page   query int    false "Page number (default 1)"
// @Param        limit  query int    false "Items per page (default 20, max 100)"
// @Success      200 {object} response.Response{data=[]model.Request,meta=pagination.Meta}
// @Failure      400 {object} response.Response
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	p := pagination.Parse(c)
	status := model.RequestStatus(c.Query("status"))

	rows, total, err := h.requestService.List(c.Request.Context(), status, p.Offset, p.Limit)
	if errors.Is(err, service.ErrInvalidStatus) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid status filter"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to list requests: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, rows, p.Meta(total)))
}

// GetRequest returns one request
// @Summary      Get request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Request ID"
// @Success      200 {object} response.Response{data=model.Request}
// @Failure      404 {object} response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	req, err := h.requestService.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// UpdateStatus moves a request to another admin-settable status
// @Summary      Change request status
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path int             true "Request ID"
// @Param        body body UpdateStatusDTO true "accepted, denied, waiting or done"
// @Success      200 {object} response.Response{data=model.Request}
// @Failure      400 {object} response.Response
// @Failure      404 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/requests/{id}/status [put]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var body UpdateStatusDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	req, err := h.requestService.ChangeStatus(c.Request.Context(), middleware.AccountID(c), id, model.RequestStatus(body.Status))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// TogglePermission flips whether the submitter may message admins
// @Summary      Toggle messaging permission
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Request ID"
// @Success      200 {object} response.Response{data=PermissionResponse}
// @Failure      404 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/requests/{id}/permission [put]
func (h *RequestHandler) TogglePermission(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	next, err := h.requestService.TogglePermission(c.Request.Context(), middleware.AccountID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, PermissionResponse{ID: id, CanMessage: next}))
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request ID"))
		return 0, false
	}
	return id, true
}

// writeServiceError maps lifecycle errors to HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrRequestCancelled):
		status = http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	}
	c.JSON(status, response.Error(status, err.Error()))
}
