package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sangamlabs/sangam/internal/storage"
	"github.com/sangamlabs/sangam/pkg/errors"
	"github.com/sangamlabs/sangam/pkg/response"
)

// maxUploadBytes caps a single upload at 8 MiB.
const maxUploadBytes = 8 << 20

var allowedUploadExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".pdf":  {},
}

// UploadHandler stores profile photos and horoscope images.
type UploadHandler struct {
	store *storage.LocalStore
}

func NewUploadHandler(store *storage.LocalStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// POST /api/uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errors.NewBadRequest("file field is required"))
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, errors.NewBadRequest("file exceeds the 8MB limit"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedUploadExts[ext]; !ok {
		response.Error(c, errors.NewBadRequest("unsupported file type"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	url, err := h.store.Save(file.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"url": url})
}
