package handler

import (
	"context"
	"image"
	"net/http"

	"github.com/chaos-io/cutout/cache"
	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/session"
	"github.com/gin-gonic/gin"
)

// Segmenter 由 segment.Manager 实现
type Segmenter interface {
	Segment(ctx context.Context, key string, img image.Image, prompt segment.Prompt) (*segment.Result, error)
	CUDAAvailable(ctx context.Context) bool
	Current() string
}

type Handler struct {
	cfg       *config.Config
	store     *session.Store
	segmenter Segmenter
	cache     cache.Cache

	Version string
}

func New(cfg *config.Config, store *session.Store, segmenter Segmenter, c cache.Cache) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{
		cfg:       cfg,
		store:     store,
		segmenter: segmenter,
		cache:     c,
		Version:   "dev",
	}
}

// Index GET /
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "cutout API is running"})
}

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.Version,
	})
}

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, model.ErrorResponse{Success: false, Error: msg})
}
