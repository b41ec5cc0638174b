package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainmessage "orbit/internal/domain/message"
	domainuser "orbit/internal/domain/user"
)

// MessageRepository is the append-only message log. Documents are never
// deleted and only the seen flag is ever updated.
type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	col := db.Collection("messages")
	indexes := []mongo.IndexModel{
		// Thread reads: both directions of a pair, newest first.
		{Keys: bson.D{{Key: "from_user_id", Value: 1}, {Key: "to_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		// Seen flips: predicate-scoped bulk update.
		{Keys: bson.D{{Key: "to_user_id", Value: 1}, {Key: "from_user_id", Value: 1}, {Key: "seen", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &MessageRepository{col: col}
}

func (r *MessageRepository) Insert(ctx context.Context, msg *domainmessage.Message) error {
	doc := messageDocument{
		ID:         primitive.NewObjectID(),
		FromUserID: string(msg.SenderID),
		ToUserID:   string(msg.RecipientID),
		Text:       msg.Body,
		MediaURL:   msg.AttachmentURL,
		Kind:       string(msg.Kind),
		Seen:       msg.Seen,
		CreatedAt:  time.Now().UTC().UnixMilli(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	msg.ID = domainmessage.ID(doc.ID.Hex())
	msg.CreatedAt = timestampToTime(doc.CreatedAt)
	return nil
}

func (r *MessageRepository) Thread(ctx context.Context, a, b domainuser.ID, page, pageSize int) ([]*domainmessage.Message, error) {
	filter := pairFilter(a, b)
	skip := int64((page - 1) * pageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(pageSize))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	messages := make([]*domainmessage.Message, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, doc.toMessage())
	}
	return messages, nil
}

func (r *MessageRepository) MarkSeen(ctx context.Context, viewer, counterpart domainuser.ID) (int64, error) {
	filter := bson.M{
		"from_user_id": string(counterpart),
		"to_user_id":   string(viewer),
		"seen":         false,
	}
	res, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"seen": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MessageRepository) Summaries(ctx context.Context, viewer domainuser.ID) ([]domainmessage.Summary, error) {
	viewerID := string(viewer)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"from_user_id": viewerID},
			bson.M{"to_user_id": viewerID},
		}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$from_user_id", viewerID}},
				"$to_user_id",
				"$from_user_id",
			}},
			"last_message": bson.M{"$first": "$$ROOT"},
			"unread_count": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$to_user_id", viewerID}},
					bson.M{"$eq": bson.A{"$seen", false}},
				}},
				1,
				0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_message.created_at", Value: -1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []summaryRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	summaries := make([]domainmessage.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, domainmessage.Summary{
			Counterpart: domainuser.Snippet{ID: domainuser.ID(row.CounterpartID)},
			LastMessage: *row.LastMessage.toMessage(),
			UnreadCount: row.UnreadCount,
		})
	}
	return summaries, nil
}

type messageDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	FromUserID string             `bson:"from_user_id"`
	ToUserID   string             `bson:"to_user_id"`
	Text       string             `bson:"text"`
	MediaURL   string             `bson:"media_url"`
	Kind       string             `bson:"message_type"`
	Seen       bool               `bson:"seen"`
	CreatedAt  int64              `bson:"created_at"`
}

func (d messageDocument) toMessage() *domainmessage.Message {
	return &domainmessage.Message{
		ID:            domainmessage.ID(d.ID.Hex()),
		SenderID:      domainuser.ID(d.FromUserID),
		RecipientID:   domainuser.ID(d.ToUserID),
		Body:          d.Text,
		AttachmentURL: d.MediaURL,
		Kind:          domainmessage.Kind(d.Kind),
		Seen:          d.Seen,
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
}

type summaryRow struct {
	CounterpartID string          `bson:"_id"`
	LastMessage   messageDocument `bson:"last_message"`
	UnreadCount   int64           `bson:"unread_count"`
}

func pairFilter(a, b domainuser.ID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"from_user_id": string(a), "to_user_id": string(b)},
		bson.M{"from_user_id": string(b), "to_user_id": string(a)},
	}}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainmessage.Repository = (*MessageRepository)(nil)
