package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainstory "orbit/internal/domain/story"
	domainuser "orbit/internal/domain/user"
)

// StoryRepository persists ephemeral stories. A TTL index reaps expired
// documents; reads still filter on expires_at because TTL deletion runs
// on a background cadence.
type StoryRepository struct {
	col *mongo.Collection
}

func NewStoryRepository(db *mongo.Database) *StoryRepository {
	col := db.Collection("stories")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &StoryRepository{col: col}
}

func (r *StoryRepository) Insert(ctx context.Context, story *domainstory.Story) error {
	doc := storyDocument{
		ID:              primitive.NewObjectID(),
		UserID:          string(story.UserID),
		Content:         story.Content,
		MediaURL:        story.MediaURL,
		MediaType:       string(story.MediaType),
		BackgroundColor: story.BackgroundColor,
		CreatedAt:       story.CreatedAt.UnixMilli(),
		ExpiresAt:       story.ExpiresAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	story.ID = domainstory.ID(doc.ID.Hex())
	return nil
}

func (r *StoryRepository) ByID(ctx context.Context, id domainstory.ID) (*domainstory.Story, error) {
	objectID, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, domainstory.ErrNotFound
	}
	var doc storyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainstory.ErrNotFound
		}
		return nil, err
	}
	return doc.toStory(), nil
}

func (r *StoryRepository) ActiveByUsers(ctx context.Context, authors []domainuser.ID, now time.Time) ([]*domainstory.Story, error) {
	if len(authors) == 0 {
		return []*domainstory.Story{}, nil
	}
	filter := bson.M{
		"user_id":    bson.M{"$in": idsToStrings(authors)},
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []storyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	stories := make([]*domainstory.Story, 0, len(docs))
	for _, doc := range docs {
		stories = append(stories, doc.toStory())
	}
	return stories, nil
}

func (r *StoryRepository) Delete(ctx context.Context, id domainstory.ID) error {
	objectID, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domainstory.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainstory.ErrNotFound
	}
	return nil
}

type storyDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	UserID          string             `bson:"user_id"`
	Content         string             `bson:"content"`
	MediaURL        string             `bson:"media_url"`
	MediaType       string             `bson:"media_type"`
	BackgroundColor string             `bson:"background_color"`
	CreatedAt       int64              `bson:"created_at"`
	// Stored as a BSON datetime, not millis, so the TTL monitor can use it.
	ExpiresAt time.Time `bson:"expires_at"`
}

func (d storyDocument) toStory() *domainstory.Story {
	return &domainstory.Story{
		ID:              domainstory.ID(d.ID.Hex()),
		UserID:          domainuser.ID(d.UserID),
		Content:         d.Content,
		MediaURL:        d.MediaURL,
		MediaType:       domainstory.MediaType(d.MediaType),
		BackgroundColor: d.BackgroundColor,
		CreatedAt:       timestampToTime(d.CreatedAt),
		ExpiresAt:       d.ExpiresAt.UTC(),
	}
}

var _ domainstory.Repository = (*StoryRepository)(nil)
