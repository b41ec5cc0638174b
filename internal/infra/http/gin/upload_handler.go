package ginserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainuser "orbit/internal/domain/user"
	"orbit/internal/infra/storage/s3"
)

const maxUploadSizeBytes int64 = 25 * 1024 * 1024

type UploadHTTP interface {
	Upload(c *gin.Context)
}

// UploadHandler accepts multipart media uploads and returns the public URL
// referenced by posts, stories and message attachments.
type UploadHandler struct {
	Uploader s3.Uploader
	Logger   *slog.Logger
}

func (h UploadHandler) Upload(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads unavailable"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}
	if fileHeader.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large (max %d MB)", maxUploadSizeBytes/1024/1024)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1024))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read file"})
		return
	}
	if len(data) == 0 || int64(len(data)) > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty or too large"})
		return
	}

	// The sniffed type is authoritative; the client's filename is not.
	contentType := http.DetectContentType(data)
	if _, ok := s3.KindFor(contentType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported content type: %s", contentType)})
		return
	}
	obj, err := h.Uploader.Upload(c.Request.Context(), s3.Upload{
		OwnerID:     string(p.ID),
		ContentType: contentType,
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		h.respondUploadError(c, p.ID, contentType, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"url":          obj.URL,
		"content_type": obj.ContentType,
		"media_kind":   obj.Kind,
	})
}

func (h UploadHandler) respondUploadError(c *gin.Context, userID domainuser.ID, contentType string, err error) {
	switch {
	case errors.Is(err, s3.ErrUnsupportedMedia):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported content type: %s", contentType)})
	case errors.Is(err, s3.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads unavailable"})
	default:
		if h.Logger != nil {
			h.Logger.Error("media upload failed", "user_id", userID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
	}
}

var _ UploadHTTP = (*UploadHandler)(nil)
