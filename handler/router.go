package handler

import (
	"github.com/chaos-io/cutout/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter 注册全部路由，调用前先 gin.SetMode
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.Use(middleware.BodyLimit(h.cfg.Server.MaxBodySize))

	r.GET("/", h.Index)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/models", h.Models)
		api.POST("/upload", h.Upload)
		api.POST("/segment", h.Segment)
		api.POST("/apply-adjustments", h.ApplyAdjustments)
		api.POST("/manual-mask", h.ManualMask)
	}

	r.GET("/uploads/:file", h.ServeUpload)
	r.GET("/outputs/:file", h.ServeOutput)

	return r
}
