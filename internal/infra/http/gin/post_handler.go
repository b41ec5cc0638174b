package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"orbit/internal/app/dto"
	"orbit/internal/app/services/posts"
	domainpost "orbit/internal/domain/post"
	domainuser "orbit/internal/domain/user"
)

type PostHTTP interface {
	Create(c *gin.Context)
	Feed(c *gin.Context)
	ByUser(c *gin.Context)
	ToggleLike(c *gin.Context)
	Delete(c *gin.Context)
}

type PostHandler struct {
	Service *posts.Service
	Logger  *slog.Logger
}

type createPostRequest struct {
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls"`
	Type      string   `json:"post_type"`
}

func (h PostHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	view, err := h.Service.Create(c.Request.Context(), posts.CreateParams{
		Author:    p.ID,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
		Type:      domainpost.Type(req.Type),
	})
	if err != nil {
		h.respondPostError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapPostView(*view))
}

func (h PostHandler) Feed(c *gin.Context) {
	if _, ok := requireAuth(c); !ok {
		return
	}
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), posts.DefaultPageSize)
	feed, err := h.Service.Feed(c.Request.Context(), page, pageSize)
	if err != nil {
		h.respondPostError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapFeedPage(feed))
}

func (h PostHandler) ByUser(c *gin.Context) {
	author := domainuser.ID(strings.TrimSpace(c.Param("id")))
	if author == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	views, err := h.Service.ByUser(c.Request.Context(), author)
	if err != nil {
		h.respondPostError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPostViews(views))
}

func (h PostHandler) ToggleLike(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	id := domainpost.ID(strings.TrimSpace(c.Param("id")))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id is required"})
		return
	}
	result, err := h.Service.ToggleLike(c.Request.Context(), id, p.ID)
	if err != nil {
		h.respondPostError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LikeResult{Liked: result.Liked, LikesCount: result.LikesCount})
}

func (h PostHandler) Delete(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	id := domainpost.ID(strings.TrimSpace(c.Param("id")))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id is required"})
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id, p.ID); err != nil {
		h.respondPostError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h PostHandler) respondPostError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainpost.ErrAuthorRequired),
		errors.Is(err, domainpost.ErrContentRequired),
		errors.Is(err, domainpost.ErrInvalidType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainpost.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, domainpost.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
	default:
		if h.Logger != nil {
			h.Logger.Error("post operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ PostHTTP = (*PostHandler)(nil)
