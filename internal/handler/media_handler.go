package handler

import (
	"errors"
	"net/http"

	"assistix/internal/blob"
	"assistix/pkg/response"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	store *blob.Store
	auth  gin.HandlerFunc
}

func NewMediaHandler(store *blob.Store, auth gin.HandlerFunc) *MediaHandler {
	return &MediaHandler{store: store, auth: auth}
}

func (h *MediaHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/media/:key", h.auth, h.GetMedia)
}

// GetMedia streams an attachment by its blob key
// @Summary      Download attachment
// @Tags         media
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        key path string true "Blob key"
// @Success      200 {file} file
// @Failure      404 {object} response.Response
// @Router       /api/media/{key} [get]
func (h *MediaHandler) GetMedia(c *gin.Context) {
	key := c.Param("key")
	f, err := h.store.Open(key)
	if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidKey) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Media not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	http.ServeContent(c.Writer, c.Request, key, info.ModTime(), f)
}
