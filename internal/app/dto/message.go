package dto

import (
	"time"

	"orbit/internal/app/services/messaging"
	domainmessage "orbit/internal/domain/message"
)

type Message struct {
	ID            string      `json:"id"`
	Sender        UserSnippet `json:"from_user"`
	Recipient     UserSnippet `json:"to_user"`
	Text          string      `json:"text"`
	AttachmentURL string      `json:"media_url,omitempty"`
	Kind          string      `json:"message_type"`
	Seen          bool        `json:"seen"`
	CreatedAt     time.Time   `json:"created_at"`
}

type MessageCollection struct {
	Items []Message `json:"items"`
	Page  int       `json:"page"`
}

type ConversationSummary struct {
	Counterpart UserSnippet `json:"user"`
	LastMessage Message     `json:"last_message"`
	UnreadCount int64       `json:"unread_count"`
}

type ConversationCollection struct {
	Items []ConversationSummary `json:"items"`
}

func MapMessageView(view messaging.View) Message {
	if view.Message == nil {
		return Message{}
	}
	return Message{
		ID:            string(view.Message.ID),
		Sender:        MapSnippet(view.Sender),
		Recipient:     MapSnippet(view.Recipient),
		Text:          view.Message.Body,
		AttachmentURL: view.Message.AttachmentURL,
		Kind:          string(view.Message.Kind),
		Seen:          view.Message.Seen,
		CreatedAt:     view.Message.CreatedAt,
	}
}

func MapMessageViews(views []messaging.View, page int) MessageCollection {
	items := make([]Message, 0, len(views))
	for _, view := range views {
		items = append(items, MapMessageView(view))
	}
	return MessageCollection{Items: items, Page: page}
}

func MapConversationSummary(summary domainmessage.Summary) ConversationSummary {
	last := summary.LastMessage
	return ConversationSummary{
		Counterpart: MapSnippet(summary.Counterpart),
		LastMessage: Message{
			ID:            string(last.ID),
			Sender:        UserSnippet{ID: string(last.SenderID)},
			Recipient:     UserSnippet{ID: string(last.RecipientID)},
			Text:          last.Body,
			AttachmentURL: last.AttachmentURL,
			Kind:          string(last.Kind),
			Seen:          last.Seen,
			CreatedAt:     last.CreatedAt,
		},
		UnreadCount: summary.UnreadCount,
	}
}

func MapConversationSummaries(summaries []domainmessage.Summary) ConversationCollection {
	items := make([]ConversationSummary, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, MapConversationSummary(summary))
	}
	return ConversationCollection{Items: items}
}
