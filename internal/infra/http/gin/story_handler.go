package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"orbit/internal/app/dto"
	"orbit/internal/app/services/stories"
	domainstory "orbit/internal/domain/story"
	domainuser "orbit/internal/domain/user"
)

type StoryHTTP interface {
	Create(c *gin.Context)
	Feed(c *gin.Context)
	ByUser(c *gin.Context)
	Delete(c *gin.Context)
}

type StoryHandler struct {
	Service *stories.Service
	Logger  *slog.Logger
}

type createStoryRequest struct {
	Content         string `json:"content"`
	MediaURL        string `json:"media_url"`
	MediaType       string `json:"media_type"`
	BackgroundColor string `json:"background_color"`
}

func (h StoryHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	view, err := h.Service.Create(c.Request.Context(), stories.CreateParams{
		Author:          p.ID,
		Content:         req.Content,
		MediaURL:        req.MediaURL,
		MediaType:       domainstory.MediaType(req.MediaType),
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		h.respondStoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapStoryView(*view))
}

func (h StoryHandler) Feed(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	reels, err := h.Service.Feed(c.Request.Context(), p.ID)
	if err != nil {
		h.respondStoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapStoryFeed(reels))
}

func (h StoryHandler) ByUser(c *gin.Context) {
	author := domainuser.ID(strings.TrimSpace(c.Param("id")))
	if author == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	views, err := h.Service.ByUser(c.Request.Context(), author)
	if err != nil {
		h.respondStoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapStoryViews(views))
}

func (h StoryHandler) Delete(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	id := domainstory.ID(strings.TrimSpace(c.Param("id")))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "story id is required"})
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id, p.ID); err != nil {
		h.respondStoryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h StoryHandler) respondStoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainstory.ErrAuthorRequired),
		errors.Is(err, domainstory.ErrEmptyStory),
		errors.Is(err, domainstory.ErrInvalidMediaType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainstory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
	case errors.Is(err, domainstory.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
	case errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		if h.Logger != nil {
			h.Logger.Error("story operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ StoryHTTP = (*StoryHandler)(nil)
