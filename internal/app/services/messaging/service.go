package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	appoutbox "orbit/internal/app/outbox"
	"orbit/internal/domain/message"
	"orbit/internal/domain/user"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Service implements direct messaging: sending, thread reads, the derived
// conversation index and the seen-state transition. Every operation acts
// on behalf of an authenticated viewer passed in explicitly; there is no
// ambient current-user state.
type Service struct {
	Messages message.Repository
	Users    user.Repository
	Outbox   appoutbox.Outbox
	Encoder  appoutbox.EventEncoder
	Logger   *slog.Logger
}

type SendParams struct {
	Sender        user.ID
	Recipient     user.ID
	Body          string
	AttachmentURL string
	Kind          message.Kind
}

// View is a message together with the denormalized profile snippets of
// both participants.
type View struct {
	Message   *message.Message
	Sender    user.Snippet
	Recipient user.Snippet
}

// Send validates, persists and returns the new message. Sending to a user
// that does not exist is rejected with user.ErrNotFound rather than
// letting an orphaned reference surface later.
func (s *Service) Send(ctx context.Context, params SendParams) (*View, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	msg, err := message.New(message.CreateParams{
		SenderID:      params.Sender,
		RecipientID:   params.Recipient,
		Body:          params.Body,
		AttachmentURL: params.AttachmentURL,
		Kind:          params.Kind,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.ByID(ctx, msg.RecipientID); err != nil {
		return nil, err
	}
	if err := s.Messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, message.MessageSent{
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Kind:        msg.Kind,
		At:          msg.CreatedAt,
	}); err != nil && s.Logger != nil {
		// The message is already durable; a failed event append is logged,
		// not surfaced to the sender.
		s.Logger.Error("outbox append failed", "event", "message.sent", "message_id", msg.ID, "error", err)
	}
	view := s.withSnippets(ctx, msg)
	if s.Logger != nil {
		s.Logger.Info("message sent", "message_id", msg.ID, "sender_id", msg.SenderID, "recipient_id", msg.RecipientID, "kind", msg.Kind)
	}
	return view, nil
}

// Thread returns one page of the conversation between viewer and
// counterpart. Page 1 holds the newest pageSize messages; the page itself
// is returned oldest-first for display. Reading never mutates: callers
// that want the source's view-clears-unread behavior compose Thread with
// MarkSeen.
func (s *Service) Thread(ctx context.Context, viewer, counterpart user.ID, page, pageSize int) ([]View, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)
	msgs, err := s.Messages.Thread(ctx, viewer, counterpart, page, pageSize)
	if err != nil {
		return nil, err
	}
	snippets := s.snippetsFor(ctx, viewer, counterpart)
	views := make([]View, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		views = append(views, View{
			Message:   msg,
			Sender:    snippetOr(snippets, msg.SenderID),
			Recipient: snippetOr(snippets, msg.RecipientID),
		})
	}
	return views, nil
}

// MarkSeen flips every unseen message from counterpart to viewer and
// reports how many were flipped. The second of two back-to-back calls
// matches nothing and succeeds.
func (s *Service) MarkSeen(ctx context.Context, viewer, counterpart user.ID) (int64, error) {
	if err := s.ensureDependencies(); err != nil {
		return 0, err
	}
	marked, err := s.Messages.MarkSeen(ctx, viewer, counterpart)
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, message.ThreadSeen{
			ViewerID:      viewer,
			CounterpartID: counterpart,
			Marked:        marked,
			At:            time.Now().UTC(),
		}); err != nil && s.Logger != nil {
			s.Logger.Error("outbox append failed", "event", "message.thread_seen", "viewer_id", viewer, "error", err)
		}
	}
	return marked, nil
}

// ListConversations recomputes the viewer's conversation index: one entry
// per counterpart with the latest message and the unread count, newest
// conversation first. A counterpart whose user record is gone keeps its
// row with a bare-ID snippet so one deleted account cannot break the page.
func (s *Service) ListConversations(ctx context.Context, viewer user.ID) ([]message.Summary, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	summaries, err := s.Messages.Summaries(ctx, viewer)
	if err != nil {
		return nil, err
	}
	ids := make([]user.ID, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.Counterpart.ID)
	}
	snippets, err := s.Users.Snippets(ctx, ids)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("conversation snippet lookup failed", "viewer_id", viewer, "error", err)
		}
		snippets = nil
	}
	for i := range summaries {
		id := summaries[i].Counterpart.ID
		if snippet, ok := snippets[id]; ok {
			summaries[i].Counterpart = snippet
		} else {
			summaries[i].Counterpart = user.Snippet{ID: id}
		}
	}
	return summaries, nil
}

func (s *Service) withSnippets(ctx context.Context, msg *message.Message) *View {
	snippets := s.snippetsFor(ctx, msg.SenderID, msg.RecipientID)
	return &View{
		Message:   msg,
		Sender:    snippetOr(snippets, msg.SenderID),
		Recipient: snippetOr(snippets, msg.RecipientID),
	}
}

func (s *Service) snippetsFor(ctx context.Context, ids ...user.ID) map[user.ID]user.Snippet {
	snippets, err := s.Users.Snippets(ctx, ids)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("snippet lookup failed", "error", err)
		}
		return nil
	}
	return snippets
}

func snippetOr(snippets map[user.ID]user.Snippet, id user.ID) user.Snippet {
	if snippet, ok := snippets[id]; ok {
		return snippet
	}
	return user.Snippet{ID: id}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Messages == nil:
		return errors.New("messaging: message repository required")
	case s.Users == nil:
		return errors.New("messaging: user repository required")
	default:
		return nil
	}
}
