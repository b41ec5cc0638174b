package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "orbit/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	col := db.Collection("users")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &UserRepository{col: col}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *UserRepository) ByExternalID(ctx context.Context, externalID string) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"external_id": externalID})
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	doc := newUserDocument(user)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateFieldError(err)
		}
		return err
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id domainuser.ID, update domainuser.ProfileUpdate) (*domainuser.User, error) {
	set := bson.M{"updated_at": time.Now().UTC().UnixMilli()}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.ProfilePicture != nil {
		set["profile_picture"] = *update.ProfilePicture
	}
	if update.CoverPhoto != nil {
		set["cover_photo"] = *update.CoverPhoto
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

func (r *UserRepository) Follow(ctx context.Context, follower, target domainuser.ID) error {
	return r.link(ctx, follower, "following", target, "followers")
}

func (r *UserRepository) Unfollow(ctx context.Context, follower, target domainuser.ID) error {
	return r.unlink(ctx, follower, "following", target, "followers")
}

func (r *UserRepository) Connect(ctx context.Context, a, b domainuser.ID) error {
	return r.link(ctx, a, "connections", b, "connections")
}

func (r *UserRepository) Disconnect(ctx context.Context, a, b domainuser.ID) error {
	return r.unlink(ctx, a, "connections", b, "connections")
}

// link adds the edge on both sides with $addToSet so repeats are no-ops.
func (r *UserRepository) link(ctx context.Context, from domainuser.ID, fromField string, to domainuser.ID, toField string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(from)}, bson.M{"$addToSet": bson.M{fromField: string(to)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainuser.ErrNotFound
	}
	res, err = r.col.UpdateOne(ctx, bson.M{"_id": string(to)}, bson.M{"$addToSet": bson.M{toField: string(from)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainuser.ErrNotFound
	}
	return nil
}

func (r *UserRepository) unlink(ctx context.Context, from domainuser.ID, fromField string, to domainuser.ID, toField string) error {
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": string(from)}, bson.M{"$pull": bson.M{fromField: string(to)}}); err != nil {
		return err
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": string(to)}, bson.M{"$pull": bson.M{toField: string(from)}})
	return err
}

func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]domainuser.Snippet, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"full_name": pattern},
	}}
	opts := options.Find().SetLimit(int64(limit)).SetProjection(snippetProjection())
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	snippets := make([]domainuser.Snippet, 0, len(docs))
	for _, doc := range docs {
		snippets = append(snippets, doc.toSnippet())
	}
	return snippets, nil
}

func (r *UserRepository) Snippets(ctx context.Context, ids []domainuser.ID) (map[domainuser.ID]domainuser.Snippet, error) {
	out := make(map[domainuser.ID]domainuser.Snippet, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, string(id))
	}
	opts := options.Find().SetProjection(snippetProjection())
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": keys}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		out[domainuser.ID(doc.ID)] = doc.toSnippet()
	}
	return out, nil
}

type userDocument struct {
	ID             string   `bson:"_id"`
	ExternalID     string   `bson:"external_id,omitempty"`
	Email          string   `bson:"email"`
	Username       string   `bson:"username"`
	FullName       string   `bson:"full_name"`
	Bio            string   `bson:"bio"`
	ProfilePicture string   `bson:"profile_picture"`
	CoverPhoto     string   `bson:"cover_photo"`
	Location       string   `bson:"location"`
	PasswordHash   string   `bson:"password_hash,omitempty"`
	Followers      []string `bson:"followers"`
	Following      []string `bson:"following"`
	Connections    []string `bson:"connections"`
	Verified       bool     `bson:"is_verified"`
	CreatedAt      int64    `bson:"created_at"`
	UpdatedAt      int64    `bson:"updated_at"`
}

func newUserDocument(u *domainuser.User) userDocument {
	return userDocument{
		ID:             string(u.ID),
		ExternalID:     u.ExternalID,
		Email:          u.Email,
		Username:       u.Username,
		FullName:       u.FullName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CoverPhoto:     u.CoverPhoto,
		Location:       u.Location,
		PasswordHash:   u.PasswordHash,
		Followers:      idsToStrings(u.Followers),
		Following:      idsToStrings(u.Following),
		Connections:    idsToStrings(u.Connections),
		Verified:       u.Verified,
		CreatedAt:      u.CreatedAt.UnixMilli(),
		UpdatedAt:      u.UpdatedAt.UnixMilli(),
	}
}

func (d userDocument) toUser() *domainuser.User {
	return &domainuser.User{
		ID:             domainuser.ID(d.ID),
		ExternalID:     d.ExternalID,
		Email:          d.Email,
		Username:       d.Username,
		FullName:       d.FullName,
		Bio:            d.Bio,
		ProfilePicture: d.ProfilePicture,
		CoverPhoto:     d.CoverPhoto,
		Location:       d.Location,
		PasswordHash:   d.PasswordHash,
		Followers:      stringsToIDs(d.Followers),
		Following:      stringsToIDs(d.Following),
		Connections:    stringsToIDs(d.Connections),
		Verified:       d.Verified,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
	}
}

func (d userDocument) toSnippet() domainuser.Snippet {
	return domainuser.Snippet{
		ID:             domainuser.ID(d.ID),
		Username:       d.Username,
		FullName:       d.FullName,
		ProfilePicture: d.ProfilePicture,
		Verified:       d.Verified,
	}
}

func snippetProjection() bson.M {
	return bson.M{"_id": 1, "username": 1, "full_name": 1, "profile_picture": 1, "is_verified": 1}
}

// duplicateFieldError distinguishes which unique index rejected the write.
func duplicateFieldError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username"):
		return domainuser.ErrUsernameTaken
	case strings.Contains(msg, "email"):
		return domainuser.ErrEmailAlreadyUsed
	default:
		return err
	}
}

func idsToStrings(ids []domainuser.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

func stringsToIDs(raw []string) []domainuser.ID {
	out := make([]domainuser.ID, 0, len(raw))
	for _, id := range raw {
		out = append(out, domainuser.ID(id))
	}
	return out
}

var _ domainuser.Repository = (*UserRepository)(nil)
