package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"orbit/internal/app/dto"
	"orbit/internal/app/services/social"
	domainuser "orbit/internal/domain/user"
)

type UserHTTP interface {
	Profile(c *gin.Context)
	UpdateProfile(c *gin.Context)
	Search(c *gin.Context)
	Follow(c *gin.Context)
	Unfollow(c *gin.Context)
	Connect(c *gin.Context)
	Disconnect(c *gin.Context)
	Edges(c *gin.Context)
}

type UserHandler struct {
	Service *social.Service
	Logger  *slog.Logger
}

type updateProfileRequest struct {
	Bio            *string `json:"bio"`
	Location       *string `json:"location"`
	ProfilePicture *string `json:"profile_picture"`
	CoverPhoto     *string `json:"cover_photo"`
}

func (h UserHandler) Profile(c *gin.Context) {
	id := domainuser.ID(strings.TrimSpace(c.Param("id")))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	profile, err := h.Service.Profile(c.Request.Context(), id)
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(profile.User, profile.Followers, profile.Following, profile.Connections))
}

func (h UserHandler) UpdateProfile(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	updated, err := h.Service.UpdateProfile(c.Request.Context(), p.ID, domainuser.ProfileUpdate{
		Bio:            req.Bio,
		Location:       req.Location,
		ProfilePicture: req.ProfilePicture,
		CoverPhoto:     req.CoverPhoto,
	})
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(updated, nil, nil, nil))
}

func (h UserHandler) Search(c *gin.Context) {
	if _, ok := requireAuth(c); !ok {
		return
	}
	query := c.Query("q")
	limit := parsePositiveInt(c.Query("limit"), 0)
	snippets, err := h.Service.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserSnippetCollection{Items: dto.MapSnippets(snippets), Total: len(snippets)})
}

func (h UserHandler) Follow(c *gin.Context) {
	h.edgeMutation(c, h.Service.Follow)
}

func (h UserHandler) Unfollow(c *gin.Context) {
	h.edgeMutation(c, h.Service.Unfollow)
}

func (h UserHandler) Connect(c *gin.Context) {
	h.edgeMutation(c, h.Service.Connect)
}

func (h UserHandler) Disconnect(c *gin.Context) {
	h.edgeMutation(c, h.Service.Disconnect)
}

// Edges serves /users/:id/followers, /following and /connections; the
// last path segment selects the list.
func (h UserHandler) Edges(c *gin.Context) {
	id := domainuser.ID(strings.TrimSpace(c.Param("id")))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	segments := strings.Split(strings.Trim(c.Request.URL.Path, "/"), "/")
	kind := social.EdgeKind(segments[len(segments)-1])
	snippets, err := h.Service.Edges(c.Request.Context(), id, kind)
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserSnippetCollection{Items: dto.MapSnippets(snippets), Total: len(snippets)})
}

func (h UserHandler) edgeMutation(c *gin.Context, op func(ctx context.Context, a, b domainuser.ID) error) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	target := domainuser.ID(strings.TrimSpace(c.Param("id")))
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	if err := op(c.Request.Context(), p.ID, target); err != nil {
		h.respondUserError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h UserHandler) respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domainuser.ErrSelfReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainuser.ErrAlreadyFollowing),
		errors.Is(err, domainuser.ErrAlreadyConnected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("user operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ UserHTTP = (*UserHandler)(nil)
