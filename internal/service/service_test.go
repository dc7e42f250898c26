package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/community-forum/internal/models"
	"github.com/Dan9191/community-forum/internal/repository"
	"github.com/sirupsen/logrus"
)

func newTestService(t *testing.T) (*Service, *repository.MemoryRepository) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	repo := repository.NewMemoryRepository()
	return NewService(repo, log), repo
}

func register(t *testing.T, svc *Service, username string) {
	t.Helper()
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: username, Passphrase: "secret-pass", Passphrase2: "secret-pass", Age: "30",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
}

func TestRegisterHashesPassphrase(t *testing.T) {
	svc, repo := newTestService(t)
	register(t, svc, "alice")

	u, err := repo.GetUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Passphrase == "secret-pass" || !strings.HasPrefix(u.Passphrase, "$2") {
		t.Fatalf("passphrase not bcrypt-hashed: %q", u.Passphrase)
	}
	if u.Age != 30 {
		t.Errorf("Age = %d", u.Age)
	}

	if _, err := svc.Authenticate(context.Background(), "alice", "secret-pass"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong passphrase: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "alice")

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"short username", RegisterInput{Username: "al", Passphrase: "secret1", Passphrase2: "secret1"}, "username"},
		{"space", RegisterInput{Username: "al ice", Passphrase: "secret1", Passphrase2: "secret1"}, "username"},
		{"short pass", RegisterInput{Username: "bob", Passphrase: "123", Passphrase2: "123"}, "passphrase"},
		{"mismatch", RegisterInput{Username: "bob", Passphrase: "secret1", Passphrase2: "secret2"}, "passphrase2"},
		{"age", RegisterInput{Username: "bob", Passphrase: "secret1", Passphrase2: "secret1", Age: "old"}, "age"},
		{"taken", RegisterInput{Username: "alice", Passphrase: "secret1", Passphrase2: "secret1"}, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestCreatePostAndFeed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	register(t, svc, "alice")

	before := time.Now().UTC().Add(-time.Second)
	post, err := svc.CreatePost(ctx, "alice", NewPostInput{
		Title:    "Hello",
		Content:  "line one\nline two",
		Keywords: []string{"go, forum"},
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.Content != "line one<br>line two" {
		t.Errorf("Content = %q", post.Content)
	}
	if post.Username != "alice" || post.CreatedAt.Before(before) || post.PostID != post.ID {
		t.Errorf("unexpected post: %+v", post)
	}

	feed, err := svc.Feed(ctx)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 1 || feed[0].Post.ID != post.ID {
		t.Fatalf("feed = %+v", feed)
	}
	if feed[0].ForumName != models.AnonymousName {
		t.Errorf("ForumName = %q, want Anonymous", feed[0].ForumName)
	}

	if err := svc.SetForumName(ctx, "alice", "Alice A."); err != nil {
		t.Fatalf("SetForumName: %v", err)
	}
	feed, _ = svc.Feed(ctx)
	if feed[0].ForumName != "Alice A." {
		t.Errorf("ForumName = %q", feed[0].ForumName)
	}
}

func TestFeedOrderAndOrphans(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	register(t, svc, "alice")

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, author := range []string{"alice", "ghost", "alice"} {
		p := &models.Post{Title: fmt.Sprint(i), Username: author, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
	}
	if err := repo.UpdateUser(ctx, "alice", models.UserUpdate{Avatar: &models.Avatar{Data: []byte("img"), ContentType: "image/gif"}}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	feed, err := svc.Feed(ctx)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got := []string{feed[0].Post.Title, feed[1].Post.Title, feed[2].Post.Title}; got[0] != "2" || got[1] != "1" || got[2] != "0" {
		t.Fatalf("order = %v, want newest first", got)
	}
	if feed[1].ForumName != models.AnonymousName || feed[1].Avatar != nil {
		t.Errorf("orphan post should be Anonymous without avatar: %+v", feed[1])
	}
	if feed[0].Avatar == nil || feed[0].Avatar.ContentType != "image/gif" {
		t.Errorf("avatar missing for alice: %+v", feed[0])
	}
}

func TestEmptyForumNameStoredAsSubmitted(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	register(t, svc, "alice")

	if err := svc.SetForumName(ctx, "alice", ""); err != nil {
		t.Fatalf("SetForumName: %v", err)
	}
	u, _ := repo.GetUser(ctx, "alice")
	if u.ForumName != "" {
		t.Fatalf("stored forum name = %q, want empty", u.ForumName)
	}
	if u.DisplayName() != models.AnonymousName {
		t.Fatalf("DisplayName = %q", u.DisplayName())
	}
}

func TestRemovePostRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	post, err := svc.CreatePost(ctx, "alice", NewPostInput{Title: "mine"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	removed, err := svc.RemovePost(ctx, "mallory", post.PostID)
	if err != nil || removed {
		t.Fatalf("non-owner removal: removed=%v err=%v", removed, err)
	}
	if n, _ := repo.CountPosts(ctx); n != 1 {
		t.Fatalf("post deleted by non-owner")
	}

	removed, err = svc.RemovePost(ctx, "alice", post.PostID)
	if err != nil || !removed {
		t.Fatalf("owner removal: removed=%v err=%v", removed, err)
	}
}

func TestConcurrentFieldUpdates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	register(t, svc, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := svc.SetForumName(ctx, "alice", fmt.Sprintf("name-%d", i)); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := svc.SetIntro(ctx, "alice", fmt.Sprintf("bio-%d", i)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	u, _ := repo.GetUser(ctx, "alice")
	if !strings.HasPrefix(u.ForumName, "name-") || !strings.HasPrefix(u.Intro, "bio-") {
		t.Fatalf("a field was clobbered: name=%q intro=%q", u.ForumName, u.Intro)
	}
}

func TestSetIntroConvertsNewlines(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	register(t, svc, "alice")

	if err := svc.SetIntro(ctx, "alice", "hi\nthere"); err != nil {
		t.Fatalf("SetIntro: %v", err)
	}
	u, _ := repo.GetUser(ctx, "alice")
	if u.Intro != "hi<br>there" {
		t.Fatalf("Intro = %q", u.Intro)
	}
	if err := svc.SetIntro(ctx, "ghost", "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update of missing user: %v", err)
	}
}

func TestSyncPostsNoDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	for i := 0; i < 5; i++ {
		if _, err := svc.CreatePost(ctx, "alice", NewPostInput{Title: "same title", Content: "same"}); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
	}
	// a legacy record without postId
	if _, err := repo.UpsertPost(ctx, &models.Post{ID: "legacy", Title: "old"}); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}

	report, err := svc.SyncPosts(ctx)
	if err != nil {
		t.Fatalf("SyncPosts: %v", err)
	}
	if report.Total != 6 || report.Updated != 6 || report.Inserted != 0 || report.Stored != 6 {
		t.Fatalf("report = %+v", report)
	}

	posts, _ := repo.ListPosts(ctx)
	seen := make(map[string]bool)
	for _, p := range posts {
		if p.PostID != p.ID {
			t.Errorf("post %s has postId %q", p.ID, p.PostID)
		}
		if seen[p.ID] {
			t.Errorf("duplicate post %s", p.ID)
		}
		seen[p.ID] = true
	}

	// running again is idempotent
	again, err := svc.SyncPosts(ctx)
	if err != nil || again.Stored != 6 {
		t.Fatalf("second sync: %+v, %v", again, err)
	}
}
