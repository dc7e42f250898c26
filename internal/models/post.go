package models

import "time"

// Post represents a forum post
type Post struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"` // mirrors ID
	Title     string    `json:"title"`
	Keywords  []string  `json:"keywords"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Content   string    `json:"content"`
}

// FeedItem is a post enriched with its author's profile
type FeedItem struct {
	Post      *Post
	ForumName string
	Avatar    *Avatar // nil when the author has none or no longer exists
}

// SyncReport summarizes a bulk post upsert
type SyncReport struct {
	Total    int   `json:"total"`
	Inserted int   `json:"inserted"`
	Updated  int   `json:"updated"`
	Stored   int64 `json:"stored"` // posts in the store after the sync
}
