package handler

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"

	"github.com/chaos-io/cutout/imgproc"
	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/session"
	"github.com/chaos-io/cutout/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ApplyAdjustments POST /api/apply-adjustments
//
//	curl -X POST http://127.0.0.1:5001/api/apply-adjustments \
//	  -H 'Content-Type: application/json' \
//	  -d '{"session_id":"...","brightness":1.1,"background_color":[255,255,255],"edge_blur":3}'
func (h *Handler) ApplyAdjustments(c *gin.Context) {
	req := model.NewAdjustRequest()
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		fail(c, http.StatusBadRequest, "missing session_id")
		return
	}

	bg, err := parseColor(req.BackgroundColor)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.EdgeBlur < 0 || req.Erode < 0 {
		fail(c, http.StatusBadRequest, "edge_blur and erode must not be negative")
		return
	}

	path, err := h.store.FindImage(req.SessionID)
	if err != nil {
		fail(c, http.StatusNotFound, "image not found")
		return
	}

	mask, err := h.store.LoadMask(req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			fail(c, http.StatusNotFound, "mask not found, run segmentation first")
			return
		}
		util.Logger.Error("failed to load mask", zap.String("session_id", req.SessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	img, err := util.OpenImage(path)
	if err != nil {
		util.Logger.Error("failed to open image", zap.String("path", path), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer util.Trace("apply adjustments " + req.SessionID)()

	adjusted := imgproc.Adjust(img, req.Brightness, req.Contrast, req.Saturation)

	var result image.Image
	if req.Transparent {
		result = imgproc.CompositeTransparent(adjusted, mask, req.Erode, req.EdgeBlur)
	} else {
		result = imgproc.Composite(adjusted, mask, bg, req.Erode, req.EdgeBlur)
	}

	name, err := h.store.SaveResult(req.SessionID, result)
	if err != nil {
		util.Logger.Error("failed to save result", zap.String("session_id", req.SessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, model.AdjustResponse{
		Success:   true,
		ResultURL: session.OutputURL(name),
	})
}

// parseColor [r, g, b]，每个分量 0-255
func parseColor(rgb []int) (color.NRGBA, error) {
	if len(rgb) != 3 {
		return color.NRGBA{}, fmt.Errorf("background_color: expected [r, g, b], got %d values", len(rgb))
	}
	for _, v := range rgb {
		if v < 0 || v > 255 {
			return color.NRGBA{}, fmt.Errorf("background_color: component %d out of range 0-255", v)
		}
	}
	return color.NRGBA{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2]), A: 255}, nil
}
