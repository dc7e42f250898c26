package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Dan9191/community-forum/internal/models"
)

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a username is already registered.
	ErrDuplicate = errors.New("already exists")
)

// Repository provides database operations over the users and posts collections
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	// UpdateUser writes only the fields set in upd. It never inserts.
	UpdateUser(ctx context.Context, username string, upd models.UserUpdate) error

	// CreatePost assigns post.ID and post.PostID before storing it.
	CreatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context) ([]*models.Post, error)
	// RemovePost deletes the post only when both postID and username match.
	RemovePost(ctx context.Context, postID, username string) (bool, error)
	// UpsertPost writes post keyed on post.ID and reports whether it was inserted.
	UpsertPost(ctx context.Context, post *models.Post) (bool, error)
	CountPosts(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open selects a backend from the URL scheme of dsn.
func Open(ctx context.Context, dsn, dbName string, timeout time.Duration) (Repository, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return NewMongoRepository(ctx, dsn, dbName, timeout)
	case "postgres", "postgresql":
		return NewPostgresRepository(ctx, dsn, timeout)
	case "memory":
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.Avatar != nil {
		c.Avatar = &models.Avatar{
			Data:        append([]byte(nil), u.Avatar.Data...),
			ContentType: u.Avatar.ContentType,
		}
	}
	return &c
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Keywords = append([]string(nil), p.Keywords...)
	return &c
}
