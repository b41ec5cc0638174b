package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpost "orbit/internal/domain/post"
	domainuser "orbit/internal/domain/user"
)

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	col := db.Collection("posts")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "hashtags", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &PostRepository{col: col}
}

func (r *PostRepository) Insert(ctx context.Context, post *domainpost.Post) error {
	doc := postDocument{
		ID:        primitive.NewObjectID(),
		UserID:    string(post.UserID),
		Content:   post.Content,
		ImageURLs: post.ImageURLs,
		Type:      string(post.Type),
		Likes:     idsToStrings(post.Likes),
		Hashtags:  post.Hashtags,
		CreatedAt: time.Now().UTC().UnixMilli(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	post.ID = domainpost.ID(doc.ID.Hex())
	post.CreatedAt = timestampToTime(doc.CreatedAt)
	return nil
}

func (r *PostRepository) ByID(ctx context.Context, id domainpost.ID) (*domainpost.Post, error) {
	objectID, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, domainpost.ErrNotFound
	}
	var doc postDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpost.ErrNotFound
		}
		return nil, err
	}
	return doc.toPost(), nil
}

func (r *PostRepository) Feed(ctx context.Context, page, pageSize int) ([]*domainpost.Post, int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	posts := make([]*domainpost.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toPost())
	}
	return posts, total, nil
}

func (r *PostRepository) ByUser(ctx context.Context, author domainuser.ID) ([]*domainpost.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user_id": string(author)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]*domainpost.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toPost())
	}
	return posts, nil
}

func (r *PostRepository) SetLikes(ctx context.Context, id domainpost.ID, likes []domainuser.ID) error {
	objectID, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domainpost.ErrNotFound
	}
	res, err := r.col.UpdateByID(ctx, objectID, bson.M{"$set": bson.M{"likes": idsToStrings(likes)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainpost.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id domainpost.ID) error {
	objectID, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domainpost.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainpost.ErrNotFound
	}
	return nil
}

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Content   string             `bson:"content"`
	ImageURLs []string           `bson:"image_urls"`
	Type      string             `bson:"post_type"`
	Likes     []string           `bson:"likes"`
	Hashtags  []string           `bson:"hashtags"`
	CreatedAt int64              `bson:"created_at"`
}

func (d postDocument) toPost() *domainpost.Post {
	return &domainpost.Post{
		ID:        domainpost.ID(d.ID.Hex()),
		UserID:    domainuser.ID(d.UserID),
		Content:   d.Content,
		ImageURLs: d.ImageURLs,
		Type:      domainpost.Type(d.Type),
		Likes:     stringsToIDs(d.Likes),
		Hashtags:  d.Hashtags,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

var _ domainpost.Repository = (*PostRepository)(nil)
