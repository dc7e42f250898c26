package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/community-forum/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoRepository stores users and posts as documents.
// The layout is compatible with collections written by the earlier mongoose models.
type MongoRepository struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

type userDoc struct {
	Username   string     `bson:"username"`
	Passphrase string     `bson:"passphrase"`
	Age        string     `bson:"age,omitempty"`
	ForumName  string     `bson:"forumname,omitempty"`
	Intro      string     `bson:"intro,omitempty"`
	Avatar     *avatarDoc `bson:"avatar,omitempty"`
}

type avatarDoc struct {
	Data        []byte `bson:"data"`
	ContentType string `bson:"contentType"`
}

type postDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	PostID    bson.ObjectID `bson:"postId,omitempty"`
	Title     string        `bson:"title"`
	Keywords  []string      `bson:"keywords"`
	Username  string        `bson:"username"`
	CreatedAt time.Time     `bson:"createdAt"`
	Content   string        `bson:"content"`
}

// NewMongoRepository connects to MongoDB and ensures the username index exists
func NewMongoRepository(ctx context.Context, uri, dbName string, timeout time.Duration) (*MongoRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	r := &MongoRepository{client: client, db: client.Database(dbName), timeout: timeout}

	if err := r.Ping(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	_, err = r.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create users index: %w", err)
	}
	return r, nil
}

func (r *MongoRepository) users() *mongo.Collection { return r.db.Collection("users") }
func (r *MongoRepository) posts() *mongo.Collection { return r.db.Collection("posts") }

func (r *MongoRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.users().InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create user %q: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	var doc userDoc
	err := r.users().FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return fromUserDoc(&doc), nil
}

func (r *MongoRepository) UpdateUser(ctx context.Context, username string, upd models.UserUpdate) error {
	if upd.Empty() {
		return nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.users().UpdateOne(ctx,
		bson.M{"username": username},
		userUpdateDocument(upd),
		options.UpdateOne().SetUpsert(false),
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) CreatePost(ctx context.Context, post *models.Post) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	id := bson.NewObjectID()
	post.ID = id.Hex()
	post.PostID = post.ID
	doc, err := toPostDoc(post)
	if err != nil {
		return err
	}
	if _, err := r.posts().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListPosts(ctx context.Context) ([]*models.Post, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	cur, err := r.posts().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	posts := make([]*models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, fromPostDoc(&docs[i]))
	}
	return posts, nil
}

func (r *MongoRepository) RemovePost(ctx context.Context, postID, username string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return false, nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.posts().DeleteOne(ctx, bson.M{"postId": oid, "username": username})
	if err != nil {
		return false, fmt.Errorf("failed to remove post: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) UpsertPost(ctx context.Context, post *models.Post) (bool, error) {
	doc, err := toPostDoc(post)
	if err != nil {
		return false, err
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.posts().UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": bson.M{
			"postId":    doc.PostID,
			"title":     doc.Title,
			"keywords":  doc.Keywords,
			"username":  doc.Username,
			"createdAt": doc.CreatedAt,
			"content":   doc.Content,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert post %s: %w", post.ID, err)
	}
	return res.UpsertedCount > 0, nil
}

func (r *MongoRepository) CountPosts(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	n, err := r.posts().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx, nil)
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// userUpdateDocument builds a $set touching only the requested fields, so
// concurrent updates of different fields do not overwrite each other.
func userUpdateDocument(upd models.UserUpdate) bson.M {
	set := bson.M{}
	if upd.ForumName != nil {
		set["forumname"] = *upd.ForumName
	}
	if upd.Intro != nil {
		set["intro"] = *upd.Intro
	}
	if upd.Avatar != nil {
		set["avatar"] = avatarDoc{Data: upd.Avatar.Data, ContentType: upd.Avatar.ContentType}
	}
	return bson.M{"$set": set}
}

func toUserDoc(u *models.User) *userDoc {
	doc := &userDoc{
		Username:   u.Username,
		Passphrase: u.Passphrase,
		ForumName:  u.ForumName,
		Intro:      u.Intro,
	}
	if u.Age > 0 {
		doc.Age = strconv.Itoa(u.Age)
	}
	if u.Avatar != nil {
		doc.Avatar = &avatarDoc{Data: u.Avatar.Data, ContentType: u.Avatar.ContentType}
	}
	return doc
}

func fromUserDoc(doc *userDoc) *models.User {
	u := &models.User{
		Username:   doc.Username,
		Passphrase: doc.Passphrase,
		ForumName:  doc.ForumName,
		Intro:      doc.Intro,
	}
	// age was a free-form string in older records
	u.Age, _ = strconv.Atoi(doc.Age)
	if doc.Avatar != nil && len(doc.Avatar.Data) > 0 {
		u.Avatar = &models.Avatar{Data: doc.Avatar.Data, ContentType: doc.Avatar.ContentType}
	}
	return u
}

func toPostDoc(p *models.Post) (*postDoc, error) {
	id, err := bson.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post id %q: %w", p.ID, err)
	}
	doc := &postDoc{
		ID:        id,
		Title:     p.Title,
		Keywords:  p.Keywords,
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
		Content:   p.Content,
	}
	if doc.Keywords == nil {
		doc.Keywords = []string{}
	}
	if p.PostID != "" {
		if doc.PostID, err = bson.ObjectIDFromHex(p.PostID); err != nil {
			return nil, fmt.Errorf("invalid postId %q: %w", p.PostID, err)
		}
	}
	return doc, nil
}

func fromPostDoc(doc *postDoc) *models.Post {
	p := &models.Post{
		ID:        doc.ID.Hex(),
		Title:     doc.Title,
		Keywords:  doc.Keywords,
		Username:  doc.Username,
		CreatedAt: doc.CreatedAt,
		Content:   doc.Content,
	}
	if !doc.PostID.IsZero() {
		p.PostID = doc.PostID.Hex()
	}
	return p
}
