package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"orbit/internal/app/dto"
	"orbit/internal/app/services/messaging"
	domainmessage "orbit/internal/domain/message"
	domainuser "orbit/internal/domain/user"
)

type MessageHTTP interface {
	Send(c *gin.Context)
	Thread(c *gin.Context)
	MarkSeen(c *gin.Context)
	Conversations(c *gin.Context)
}

type MessageHandler struct {
	Service *messaging.Service
	Logger  *slog.Logger
}

type sendMessageRequest struct {
	To       string `json:"to_user_id"`
	Text     string `json:"text"`
	MediaURL string `json:"media_url"`
	Kind     string `json:"message_type"`
}

func (h MessageHandler) Send(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	view, err := h.Service.Send(c.Request.Context(), messaging.SendParams{
		Sender:        p.ID,
		Recipient:     domainuser.ID(strings.TrimSpace(req.To)),
		Body:          req.Text,
		AttachmentURL: req.MediaURL,
		Kind:          domainmessage.Kind(req.Kind),
	})
	if err != nil {
		h.respondMessageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapMessageView(*view))
}

// Thread returns one page of the conversation with :userId and, for the
// first page, marks the counterpart's messages as seen. Opening the thread
// is what clears the unread counter.
func (h MessageHandler) Thread(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	counterpart := domainuser.ID(strings.TrimSpace(c.Param("userId")))
	if counterpart == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("limit"), messaging.DefaultPageSize)

	views, err := h.Service.Thread(c.Request.Context(), p.ID, counterpart, page, pageSize)
	if err != nil {
		h.respondMessageError(c, err)
		return
	}
	if page == 1 {
		if _, err := h.Service.MarkSeen(c.Request.Context(), p.ID, counterpart); err != nil && h.Logger != nil {
			h.Logger.Warn("mark seen failed", "viewer_id", p.ID, "counterpart_id", counterpart, "error", err)
		}
	}
	c.JSON(http.StatusOK, dto.MapMessageViews(views, page))
}

func (h MessageHandler) MarkSeen(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	counterpart := domainuser.ID(strings.TrimSpace(c.Param("userId")))
	if counterpart == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	marked, err := h.Service.MarkSeen(c.Request.Context(), p.ID, counterpart)
	if err != nil {
		h.respondMessageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

func (h MessageHandler) Conversations(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	summaries, err := h.Service.ListConversations(c.Request.Context(), p.ID)
	if err != nil {
		h.respondMessageError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapConversationSummaries(summaries))
}

func (h MessageHandler) respondMessageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainmessage.ErrSenderRequired),
		errors.Is(err, domainmessage.ErrRecipientRequired),
		errors.Is(err, domainmessage.ErrSelfAddressed),
		errors.Is(err, domainmessage.ErrEmptyMessage),
		errors.Is(err, domainmessage.ErrInvalidKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domainmessage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
	default:
		if h.Logger != nil {
			h.Logger.Error("messaging operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePositiveInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

var _ MessageHTTP = (*MessageHandler)(nil)
