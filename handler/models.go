package handler

import (
	"net/http"

	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/segment"
	"github.com/gin-gonic/gin"
)

// Models GET /api/models
func (h *Handler) Models(c *gin.Context) {
	specs := segment.Models()
	models := make([]model.ModelInfo, 0, len(specs))
	for _, s := range specs {
		models = append(models, model.ModelInfo{
			ID:      s.Key,
			Name:    s.Name(),
			VRAMGB:  s.VRAMGB,
			Speed:   s.Speed,
			Quality: s.Quality,
		})
	}

	var current *string
	if key := h.segmenter.Current(); key != "" {
		current = &key
	}

	c.JSON(http.StatusOK, model.ModelsResponse{
		Success:       true,
		Models:        models,
		CUDAAvailable: h.segmenter.CUDAAvailable(c.Request.Context()),
		CurrentModel:  current,
	})
}
