package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Dan9191/community-forum/internal/models"
	"github.com/Dan9191/community-forum/internal/repository"
	"github.com/Dan9191/community-forum/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for any login failure.
var ErrInvalidCredentials = errors.New("invalid username or passphrase")

// ValidationError describes rejected form input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Service handles business logic
type Service struct {
	repo repository.Repository
	log  *logrus.Logger
	now  func() time.Time
}

// NewService initializes a new service
func NewService(repo repository.Repository, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// RegisterInput is the submitted signup form
type RegisterInput struct {
	Username    string
	Passphrase  string
	Passphrase2 string
	Age         string
}

// Register creates a new user with hashed passphrase
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
		return nil, &ValidationError{Field: "username", Message: "must be between 3 and 30 characters"}
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return nil, &ValidationError{Field: "username", Message: "must not contain spaces"}
	}
	// bcrypt only looks at the first 72 bytes
	if n := len(in.Passphrase); n < 6 || n > 72 {
		return nil, &ValidationError{Field: "passphrase", Message: "must be between 6 and 72 bytes"}
	}
	if in.Passphrase != in.Passphrase2 {
		return nil, &ValidationError{Field: "passphrase2", Message: "passphrases do not match"}
	}
	age := 0
	if a := strings.TrimSpace(in.Age); a != "" {
		var err error
		if age, err = strconv.Atoi(a); err != nil || age < 0 {
			return nil, &ValidationError{Field: "age", Message: "must be a non-negative number"}
		}
	}

	hashed, err := HashPassphrase(in.Passphrase)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, Passphrase: hashed, Age: age}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ValidationError{Field: "username", Message: "is already taken"}
		}
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Username)
	return user, nil
}

// Authenticate checks the passphrase of username
func (s *Service) Authenticate(ctx context.Context, username, passphrase string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Passphrase), []byte(passphrase)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.log.Infof("User logged in: %s", user.Username)
	return user, nil
}

// HashPassphrase returns the bcrypt hash stored on user records
func HashPassphrase(passphrase string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passphrase: %w", err)
	}
	return string(hashed), nil
}

// Feed returns every post, newest first, with its author's display name and avatar
func (s *Service) Feed(ctx context.Context) ([]models.FeedItem, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})

	authors := make(map[string]*models.User)
	items := make([]models.FeedItem, 0, len(posts))
	for _, post := range posts {
		author, seen := authors[post.Username]
		if !seen {
			author, err = s.repo.GetUser(ctx, post.Username)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			authors[post.Username] = author
		}
		item := models.FeedItem{Post: post, ForumName: author.DisplayName()}
		if author != nil {
			item.Avatar = author.Avatar
		}
		items = append(items, item)
	}
	return items, nil
}

// NewPostInput is the submitted compose form
type NewPostInput struct {
	Title    string
	Content  string
	Keywords []string
}

// CreatePost stores a post authored by username
func (s *Service) CreatePost(ctx context.Context, username string, in NewPostInput) (*models.Post, error) {
	post := &models.Post{
		Title:     in.Title,
		Keywords:  utils.ParseKeywords(in.Keywords),
		Username:  username,
		CreatedAt: s.now(),
		Content:   utils.FormatMultiline(in.Content),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.log.Infof("Post %s created by %s", post.ID, username)
	return post, nil
}

// RemovePost deletes postID if username owns it. Anything else is a no-op.
func (s *Service) RemovePost(ctx context.Context, username, postID string) (bool, error) {
	removed, err := s.repo.RemovePost(ctx, postID, username)
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Infof("Post %s removed by %s", postID, username)
	} else {
		s.log.Debugf("Post %s not removed: no post owned by %s", postID, username)
	}
	return removed, nil
}

// Profile loads the current state of username
func (s *Service) Profile(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetUser(ctx, username)
}

// SetForumName stores name as submitted; rendering handles the empty case
func (s *Service) SetForumName(ctx context.Context, username, name string) error {
	return s.repo.UpdateUser(ctx, username, models.UserUpdate{ForumName: &name})
}

// SetIntro stores the biography with line breaks converted
func (s *Service) SetIntro(ctx context.Context, username, intro string) error {
	formatted := utils.FormatMultiline(intro)
	return s.repo.UpdateUser(ctx, username, models.UserUpdate{Intro: &formatted})
}

// SetAvatar replaces the avatar of username
func (s *Service) SetAvatar(ctx context.Context, username string, avatar models.Avatar) error {
	if err := s.repo.UpdateUser(ctx, username, models.UserUpdate{Avatar: &avatar}); err != nil {
		return err
	}
	s.log.Infof("Avatar updated for %s (%s, %d bytes)", username, avatar.ContentType, len(avatar.Data))
	return nil
}

// SyncPosts rewrites every post keyed on its own id, repairing postId
func (s *Service) SyncPosts(ctx context.Context) (*models.SyncReport, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	report := &models.SyncReport{Total: len(posts)}
	for _, post := range posts {
		post.PostID = post.ID
		inserted, err := s.repo.UpsertPost(ctx, post)
		if err != nil {
			return nil, err
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}
	if report.Stored, err = s.repo.CountPosts(ctx); err != nil {
		return nil, err
	}

	s.log.Infof("Posts synced: %d total, %d inserted, %d updated", report.Total, report.Inserted, report.Updated)
	return report, nil
}

// Ping checks the database
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
