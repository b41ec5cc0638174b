package outbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "orbit/internal/app/outbox"
)

// Entry lifecycle: pending → claimed → published, with retry looping a
// failed entry back through claimable once its backoff elapses.
const (
	statusPending   = "pending"
	statusClaimed   = "claimed"
	statusPublished = "published"
	statusRetry     = "retry"
)

// Entry is one queued integration event as persisted alongside the
// aggregates it describes.
type Entry struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers,omitempty"`
	Status      string            `bson:"status"`
	Attempts    int               `bson:"attempts"`
	NotBefore   time.Time         `bson:"not_before"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	PublishedAt time.Time         `bson:"published_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}

// Store persists queued events in the "outbox_events" collection. Writes
// land in the same database as the aggregates, so a lost broker never
// loses an event, only delays it.
type Store struct {
	col *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	col := db.Collection("outbox_events")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "not_before", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &Store{col: col}
}

// Add queues a freshly recorded event. It is immediately claimable.
func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	_, err := s.col.InsertOne(ctx, Entry{
		ID:         record.ID,
		Name:       record.Name,
		Payload:    record.Payload,
		OccurredAt: record.OccurredAt,
		Aggregate:  record.Aggregate,
		Headers:    record.Headers,
		Status:     statusPending,
		NotBefore:  now,
	})
	return err
}

// Claim atomically takes ownership of one due entry. A nil entry with a
// nil error means the queue is drained.
func (s *Store) Claim(ctx context.Context, workerID string) (*Entry, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"status":     bson.M{"$in": []string{statusPending, statusRetry}},
		"not_before": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":     statusClaimed,
		"claimed_by": workerID,
		"claimed_at": now,
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)

	var entry Entry
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// MarkPublished finishes an entry. Published entries are kept for audit
// rather than deleted.
func (s *Store) MarkPublished(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":       statusPublished,
		"published_at": time.Now().UTC(),
	}})
	return err
}

// Retry returns a claimed entry to the queue with its failure recorded,
// claimable again once next passes.
func (s *Store) Retry(ctx context.Context, id string, next time.Time, reason string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status":     statusRetry,
			"not_before": next,
			"last_error": reason,
		},
		"$inc": bson.M{"attempts": 1},
	})
	return err
}

var _ appoutbox.Outbox = (*Store)(nil)
