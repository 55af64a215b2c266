package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// ServeUpload GET /uploads/:file
func (h *Handler) ServeUpload(c *gin.Context) {
	serveFile(c, h.store.UploadDir())
}

// ServeOutput GET /outputs/:file
func (h *Handler) ServeOutput(c *gin.Context) {
	serveFile(c, h.store.OutputDir())
}

func serveFile(c *gin.Context, dir string) {
	name := filepath.Base(c.Param("file"))
	if name == "." || name == "/" || name == ".." {
		fail(c, http.StatusNotFound, "file not found")
		return
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		fail(c, http.StatusNotFound, "file not found")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.File(path)
}
