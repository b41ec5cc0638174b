package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	domainmessage "orbit/internal/domain/message"
	domainuser "orbit/internal/domain/user"
)

// MessageRepository keeps the message log in memory. A monotonic sequence
// doubles as the identifier and as the tiebreaker for messages created in
// the same millisecond, so ordering follows insertion order exactly.
type MessageRepository struct {
	mu       sync.RWMutex
	items    []*domainmessage.Message
	seq      int64
	lastTime time.Time
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Insert(ctx context.Context, msg *domainmessage.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	now := time.Now().UTC()
	// The clock may not advance between inserts; never go backwards.
	if now.Before(r.lastTime) {
		now = r.lastTime
	}
	r.lastTime = now

	msg.ID = domainmessage.ID("mem-" + strconv.FormatInt(r.seq, 10))
	msg.CreatedAt = now

	stored := *msg
	r.items = append(r.items, &stored)
	return nil
}

func (r *MessageRepository) Thread(ctx context.Context, a, b domainuser.ID, page, pageSize int) ([]*domainmessage.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*domainmessage.Message, 0)
	for _, item := range r.items {
		if (item.SenderID == a && item.RecipientID == b) || (item.SenderID == b && item.RecipientID == a) {
			matches = append(matches, item)
		}
	}
	// Items are appended in insertion order; newest-first is the reverse.
	reverse(matches)

	start := (page - 1) * pageSize
	if start > len(matches) {
		start = len(matches)
	}
	end := start + pageSize
	if end > len(matches) {
		end = len(matches)
	}

	result := make([]*domainmessage.Message, 0, end-start)
	for _, item := range matches[start:end] {
		copied := *item
		result = append(result, &copied)
	}
	return result, nil
}

func (r *MessageRepository) MarkSeen(ctx context.Context, viewer, counterpart domainuser.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var marked int64
	for _, item := range r.items {
		if item.SenderID == counterpart && item.RecipientID == viewer && !item.Seen {
			item.Seen = true
			marked++
		}
	}
	return marked, nil
}

func (r *MessageRepository) Summaries(ctx context.Context, viewer domainuser.ID) ([]domainmessage.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type rollup struct {
		last   *domainmessage.Message
		order  int
		unread int64
	}
	rollups := make(map[domainuser.ID]*rollup)
	for idx, item := range r.items {
		var counterpart domainuser.ID
		switch viewer {
		case item.SenderID:
			counterpart = item.RecipientID
		case item.RecipientID:
			counterpart = item.SenderID
		default:
			continue
		}
		entry, ok := rollups[counterpart]
		if !ok {
			entry = &rollup{}
			rollups[counterpart] = entry
		}
		entry.last = item
		entry.order = idx
		if item.RecipientID == viewer && !item.Seen {
			entry.unread++
		}
	}

	summaries := make([]domainmessage.Summary, 0, len(rollups))
	orders := make(map[domainuser.ID]int, len(rollups))
	for counterpart, entry := range rollups {
		orders[counterpart] = entry.order
		summaries = append(summaries, domainmessage.Summary{
			Counterpart: domainuser.Snippet{ID: counterpart},
			LastMessage: *entry.last,
			UnreadCount: entry.unread,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return orders[summaries[i].Counterpart.ID] > orders[summaries[j].Counterpart.ID]
	})
	return summaries, nil
}

func reverse(items []*domainmessage.Message) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

var _ domainmessage.Repository = (*MessageRepository)(nil)
