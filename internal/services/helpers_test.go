package services

import (
	"context"
	"testing"
	"time"

	"promptdir/internal/events"
	"promptdir/internal/identity"
	"promptdir/internal/logger"
	"promptdir/internal/models"
	"promptdir/internal/testutil"
	"promptdir/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	alice = &identity.Identity{Subject: "user-alice", Name: "Alice", Username: "alice"}
	bob   = &identity.Identity{Subject: "user-bob", Username: "bob"}
)

// tickingClock advances one second per call so created_at orderings are deterministic.
type tickingClock struct{ t time.Time }

func (c *tickingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	db       *gorm.DB
	bus      *events.MemoryBus
	cache    *utils.Cache
	prompts  *PromptService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := testutil.NewDB(t)
	cache, err := utils.NewCache(100, time.Minute)
	require.NoError(t, err)
	bus := events.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	clock := &tickingClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	prompts := NewPromptService(conn, logger.NewNop(), cache, bus)
	prompts.now = clock.Now
	comments := NewCommentService(conn, logger.NewNop(), bus)
	comments.now = clock.Now

	return &fixture{db: conn, bus: bus, cache: cache, prompts: prompts, comments: comments}
}

func (f *fixture) createPrompt(t *testing.T, who *identity.Identity, title string, public bool) *models.Prompt {
	t.Helper()
	p, err := f.prompts.CreatePrompt(context.Background(), who, CreatePromptInput{
		Title:    title,
		Prompt:   "You are a helpful assistant for " + title,
		IsPublic: public,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) addComment(t *testing.T, who *identity.Identity, promptID, content string, parentID *string) *models.Comment {
	t.Helper()
	c, err := f.comments.AddComment(context.Background(), who, AddCommentInput{
		PromptID: promptID,
		Content:  content,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return c
}

func titles(prompts []models.Prompt) []string {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = p.Title
	}
	return out
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }
