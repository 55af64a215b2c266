package handler

import (
	"errors"
	"image"
	"net/http"
	"os"

	"github.com/chaos-io/cutout/cache"
	"github.com/chaos-io/cutout/imgproc"
	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/session"
	"github.com/chaos-io/cutout/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 统计 bbox 和覆盖率时的前景阈值
const foregroundThreshold = 127

// Segment POST /api/segment
//
//	curl -X POST http://127.0.0.1:5001/api/segment \
//	  -H 'Content-Type: application/json' \
//	  -d '{"session_id":"...","points":[[120,80,1]],"model_size":"small"}'
func (h *Handler) Segment(c *gin.Context) {
	var req model.SegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		fail(c, http.StatusBadRequest, "missing session_id")
		return
	}

	prompt, err := segment.ParsePrompt(req.Points, req.BBox)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if prompt.Empty() {
		fail(c, http.StatusBadRequest, "points or bbox required")
		return
	}

	path, err := h.store.FindImage(req.SessionID)
	if err != nil {
		fail(c, http.StatusNotFound, "image not found")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		util.Logger.Error("failed to read image", zap.String("path", path), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	modelSize := req.ModelSize
	if modelSize == "" {
		modelSize = h.cfg.Model.DefaultSize
	}
	spec := segment.Lookup(modelSize)

	ctx := c.Request.Context()
	cacheKey := cache.SegmentKey(data, spec.Key, []any{req.Points, req.BBox})

	if entry, err := h.cache.Get(ctx, cacheKey); err != nil {
		util.Logger.Warn("failed to get cache", zap.Error(err))
	} else if entry != nil {
		if mask, err := util.DecodeImage(entry.Mask); err == nil {
			util.Logger.Info("cache hit", zap.String("cache_key", cacheKey))
			h.respondMask(c, req.SessionID, imgproc.ToGray(mask), entry.Score, entry.Model, true)
			return
		}
		util.Logger.Warn("cached mask is not decodable", zap.String("cache_key", cacheKey))
	}

	img, err := util.DecodeImage(data)
	if err != nil {
		util.Logger.Error("failed to decode image", zap.String("path", path), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.segmenter.Segment(ctx, modelSize, img, prompt)
	if err != nil {
		util.Logger.Error("segmentation failed",
			zap.String("session_id", req.SessionID),
			zap.String("model", spec.Key),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	if encoded, err := util.EncodePNG(result.Mask); err == nil {
		entry := &cache.Entry{Mask: encoded, Score: result.Score, Model: result.Model}
		if err := h.cache.Set(ctx, cacheKey, entry); err != nil {
			util.Logger.Warn("failed to set cache", zap.Error(err))
		}
	}

	h.respondMask(c, req.SessionID, result.Mask, result.Score, result.Model, false)
}

func (h *Handler) respondMask(c *gin.Context, id string, mask *image.Gray, score float64, modelKey string, cached bool) {
	name, err := h.store.SaveMask(id, mask)
	if err != nil {
		util.Logger.Error("failed to save mask", zap.String("session_id", id), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := model.SegmentResponse{
		Success:  true,
		MaskURL:  session.OutputURL(name),
		Score:    score,
		Model:    modelKey,
		Coverage: imgproc.Coverage(mask, foregroundThreshold),
		Cached:   cached,
	}
	if r, err := imgproc.MaskBBox(mask, foregroundThreshold); err == nil {
		resp.BBox = &model.BBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
	} else if !errors.Is(err, imgproc.ErrEmptyMask) {
		util.Logger.Warn("failed to compute mask bbox", zap.Error(err))
	}

	c.JSON(http.StatusOK, resp)
}
