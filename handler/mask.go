package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/session"
	"github.com/chaos-io/cutout/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ManualMask POST /api/manual-mask，前端画笔修改后的 mask 覆盖模型结果
func (h *Handler) ManualMask(c *gin.Context) {
	var req model.ManualMaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" || req.MaskData == "" {
		fail(c, http.StatusBadRequest, "missing session_id or mask_data")
		return
	}
	if !session.ValidID(req.SessionID) {
		fail(c, http.StatusBadRequest, "invalid session_id")
		return
	}

	data, err := base64.StdEncoding.DecodeString(stripDataURL(req.MaskData))
	if err != nil {
		util.Logger.Error("failed to decode mask data", zap.String("session_id", req.SessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	mask, err := util.DecodeImage(data)
	if err != nil {
		util.Logger.Error("failed to decode mask image", zap.String("session_id", req.SessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	name, err := h.store.SaveMask(req.SessionID, mask)
	if err != nil {
		util.Logger.Error("failed to save mask", zap.String("session_id", req.SessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	util.Logger.Info("manual mask saved", zap.String("session_id", req.SessionID))

	c.JSON(http.StatusOK, model.MaskResponse{
		Success: true,
		MaskURL: session.OutputURL(name),
	})
}

// stripDataURL 去掉 data:image/png;base64, 前缀
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
