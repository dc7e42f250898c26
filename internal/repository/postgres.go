package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/community-forum/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username            TEXT PRIMARY KEY,
	passphrase          TEXT NOT NULL,
	age                 INTEGER NOT NULL DEFAULT 0,
	forumname           TEXT,
	intro               TEXT,
	avatar_data         BYTEA,
	avatar_content_type TEXT
);
CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	post_id    TEXT,
	title      TEXT NOT NULL,
	keywords   TEXT[] NOT NULL DEFAULT '{}',
	username   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	content    TEXT NOT NULL
);`

const (
	insertUserQuery = `INSERT INTO users (username, passphrase, age, forumname, intro) VALUES ($1, $2, $3, $4, $5)`
	selectUserQuery = `SELECT username, passphrase, age, forumname, intro, avatar_data, avatar_content_type FROM users WHERE username = $1`
	insertPostQuery = `INSERT INTO posts (id, post_id, title, keywords, username, created_at, content) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	selectPostsQuery = `SELECT id, post_id, title, keywords, username, created_at, content FROM posts`
	deletePostQuery  = `DELETE FROM posts WHERE post_id = $1 AND username = $2`
	upsertPostQuery  = `INSERT INTO posts (id, post_id, title, keywords, username, created_at, content)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET post_id = EXCLUDED.post_id, title = EXCLUDED.title, keywords = EXCLUDED.keywords,
	username = EXCLUDED.username, created_at = EXCLUDED.created_at, content = EXCLUDED.content
RETURNING (xmax = 0) AS inserted`
	countPostsQuery = `SELECT COUNT(*) FROM posts`
)

// PostgresRepository provides database operations on PostgreSQL
type PostgresRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresRepository opens the database and creates missing tables
func NewPostgresRepository(ctx context.Context, dsn string, timeout time.Duration) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	r := NewPostgresRepositoryFromDB(db, timeout)
	if err := r.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewPostgresRepositoryFromDB wraps an already opened handle
func NewPostgresRepositoryFromDB(db *sql.DB, timeout time.Duration) *PostgresRepository {
	return &PostgresRepository{db: db, timeout: timeout}
}

// Migrate creates the users and posts tables when missing
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, insertUserQuery,
		user.Username, user.Passphrase, user.Age, nullString(user.ForumName), nullString(user.Intro))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("failed to create user %q: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if user.Avatar != nil {
		return r.UpdateUser(ctx, user.Username, models.UserUpdate{Avatar: user.Avatar})
	}
	return nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	user := &models.User{}
	var forumName, intro, contentType sql.NullString
	var avatar []byte
	err := r.db.QueryRowContext(ctx, selectUserQuery, username).
		Scan(&user.Username, &user.Passphrase, &user.Age, &forumName, &intro, &avatar, &contentType)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.ForumName = forumName.String
	user.Intro = intro.String
	if len(avatar) > 0 {
		user.Avatar = &models.Avatar{Data: avatar, ContentType: contentType.String}
	}
	return user, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, username string, upd models.UserUpdate) error {
	if upd.Empty() {
		return nil
	}
	query, args := userUpdateQuery(username, upd)
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return nil
}

// userUpdateQuery builds an UPDATE that touches only the requested columns.
func userUpdateQuery(username string, upd models.UserUpdate) (string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.ForumName != nil {
		add("forumname", *upd.ForumName)
	}
	if upd.Intro != nil {
		add("intro", *upd.Intro)
	}
	if upd.Avatar != nil {
		add("avatar_data", upd.Avatar.Data)
		add("avatar_content_type", upd.Avatar.ContentType)
	}
	args = append(args, username)
	query := fmt.Sprintf("UPDATE users SET %s WHERE username = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

func (r *PostgresRepository) CreatePost(ctx context.Context, post *models.Post) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	post.ID = uuid.NewString()
	post.PostID = post.ID
	_, err := r.db.ExecContext(ctx, insertPostQuery,
		post.ID, post.PostID, post.Title, pq.Array(nonNil(post.Keywords)), post.Username, post.CreatedAt, post.Content)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListPosts(ctx context.Context) ([]*models.Post, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, selectPostsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p := &models.Post{}
		var postID sql.NullString
		if err := rows.Scan(&p.ID, &postID, &p.Title, pq.Array(&p.Keywords), &p.Username, &p.CreatedAt, &p.Content); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.PostID = postID.String
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *PostgresRepository) RemovePost(ctx context.Context, postID, username string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.db.ExecContext(ctx, deletePostQuery, postID, username)
	if err != nil {
		return false, fmt.Errorf("failed to remove post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to remove post: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) UpsertPost(ctx context.Context, post *models.Post) (bool, error) {
	if post.ID == "" {
		return false, fmt.Errorf("failed to upsert post: empty id")
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	var inserted bool
	err := r.db.QueryRowContext(ctx, upsertPostQuery,
		post.ID, nullString(post.PostID), post.Title, pq.Array(nonNil(post.Keywords)), post.Username, post.CreatedAt, post.Content).
		Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert post %s: %w", post.ID, err)
	}
	return inserted, nil
}

func (r *PostgresRepository) CountPosts(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	var n int64
	if err := r.db.QueryRowContext(ctx, countPostsQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
