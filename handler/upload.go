package handler

import (
	"errors"
	"net/http"

	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/session"
	"github.com/chaos-io/cutout/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upload POST /api/upload，multipart 字段 file
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		util.Logger.Warn("failed to get uploaded file", zap.Error(err))
		fail(c, http.StatusBadRequest, "no file uploaded")
		return
	}
	if file.Filename == "" {
		fail(c, http.StatusBadRequest, "empty filename")
		return
	}
	if _, ok := h.store.Allowed(file.Filename); !ok {
		fail(c, http.StatusBadRequest, "unsupported file format")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.Logger.Error("failed to open uploaded file", zap.Error(err))
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer func() {
		_ = src.Close()
	}()

	up, err := h.store.SaveUpload(file.Filename, src)
	if err != nil {
		if errors.Is(err, session.ErrUnsupportedFormat) || errors.Is(err, session.ErrEmptyFilename) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		util.Logger.Error("failed to save file", zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	width, height, err := util.ImageSize(up.Path)
	if err != nil {
		util.Logger.Warn("uploaded file is not a valid image",
			zap.String("filename", file.Filename), zap.Error(err))
		h.store.Remove(up.ID)
		fail(c, http.StatusBadRequest, "invalid image: "+err.Error())
		return
	}

	util.Logger.Info("file uploaded",
		zap.String("session_id", up.ID),
		zap.String("filename", up.Filename),
		zap.Int64("size", file.Size),
		zap.Int("width", width),
		zap.Int("height", height))

	c.JSON(http.StatusOK, model.UploadResponse{
		Success:   true,
		SessionID: up.ID,
		Filename:  up.Filename,
		Width:     width,
		Height:    height,
		ImageURL:  session.UploadURL(up.Filename),
	})
}
