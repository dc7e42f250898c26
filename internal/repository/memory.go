package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dan9191/community-forum/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users and posts in process memory.
// Used for local development and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
	posts map[string]*models.Post
}

// NewMemoryRepository initializes an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return fmt.Errorf("failed to create user %q: %w", user.Username, ErrDuplicate)
	}
	r.users[user.Username] = copyUser(user)
	return nil
}

func (r *MemoryRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return copyUser(u), nil
}

func (r *MemoryRepository) UpdateUser(ctx context.Context, username string, upd models.UserUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if upd.ForumName != nil {
		u.ForumName = *upd.ForumName
	}
	if upd.Intro != nil {
		u.Intro = *upd.Intro
	}
	if upd.Avatar != nil {
		u.Avatar = &models.Avatar{
			Data:        append([]byte(nil), upd.Avatar.Data...),
			ContentType: upd.Avatar.ContentType,
		}
	}
	return nil
}

func (r *MemoryRepository) CreatePost(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = uuid.NewString()
	post.PostID = post.ID
	r.posts[post.ID] = copyPost(post)
	return nil
}

func (r *MemoryRepository) ListPosts(ctx context.Context) ([]*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		posts = append(posts, copyPost(p))
	}
	return posts, nil
}

func (r *MemoryRepository) RemovePost(ctx context.Context, postID, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.posts {
		if p.PostID == postID && p.Username == username {
			delete(r.posts, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) UpsertPost(ctx context.Context, post *models.Post) (bool, error) {
	if post.ID == "" {
		return false, fmt.Errorf("failed to upsert post: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.posts[post.ID]
	r.posts[post.ID] = copyPost(post)
	return !exists, nil
}

func (r *MemoryRepository) CountPosts(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.posts)), nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) Close(ctx context.Context) error { return nil }
