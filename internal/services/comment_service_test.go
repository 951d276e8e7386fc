package services

import (
	"context"
	"testing"

	"promptdir/internal/identity"
	"promptdir/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment(t *testing.T) {
	ctx := context.Background()

	t.Run("author comes from the identity", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPrompt(t, nil, "Discussed", true)

		c := f.addComment(t, alice, p.ID, "Nice prompt", nil)
		assert.Equal(t, alice.Subject, c.UserID)
		assert.Equal(t, "Alice", c.UserName)
		assert.Nil(t, c.ParentID)

		c = f.addComment(t, bob, p.ID, "Agreed", nil)
		assert.Equal(t, "bob", c.UserName, "username is used when there is no name")

		c = f.addComment(t, &identity.Identity{Subject: "user-x"}, p.ID, "Hi", nil)
		assert.Equal(t, "Anonymous", c.UserName)
	})

	t.Run("requires an identity", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPrompt(t, nil, "Discussed", true)
		_, err := f.comments.AddComment(ctx, nil, AddCommentInput{PromptID: p.ID, Content: "hi"})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("blank content is rejected", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPrompt(t, nil, "Discussed", true)
		_, err := f.comments.AddComment(ctx, alice, AddCommentInput{PromptID: p.ID, Content: " \n\t"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("prompt must exist and be visible", func(t *testing.T) {
		f := newFixture(t)
		private := f.createPrompt(t, alice, "Secret", false)

		_, err := f.comments.AddComment(ctx, alice, AddCommentInput{PromptID: "missing", Content: "hi"})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = f.comments.AddComment(ctx, bob, AddCommentInput{PromptID: private.ID, Content: "hi"})
		assert.ErrorIs(t, err, ErrNotFound)

		c := f.addComment(t, alice, private.ID, "note to self", nil)
		assert.Equal(t, private.ID, c.PromptID)
	})

	t.Run("parent must be on the same prompt", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPrompt(t, nil, "One", true)
		other := f.createPrompt(t, nil, "Two", true)
		root := f.addComment(t, alice, p.ID, "root", nil)

		_, err := f.comments.AddComment(ctx, bob, AddCommentInput{PromptID: other.ID, Content: "x", ParentID: &root.ID})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = f.comments.AddComment(ctx, bob, AddCommentInput{PromptID: p.ID, Content: "x", ParentID: strPtr("missing")})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		reply := f.addComment(t, bob, p.ID, "reply", &root.ID)
		require.NotNil(t, reply.ParentID)
		assert.Equal(t, root.ID, *reply.ParentID)
	})
}

func TestGetComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.createPrompt(t, nil, "Discussed", true)
	private := f.createPrompt(t, alice, "Secret", false)

	f.addComment(t, alice, p.ID, "first", nil)
	f.addComment(t, bob, p.ID, "second", nil)
	f.addComment(t, alice, p.ID, "third", nil)
	f.addComment(t, alice, private.ID, "hidden", nil)

	got, err := f.comments.GetComments(ctx, nil, p.ID)
	require.NoError(t, err)
	contents := make([]string, len(got))
	for i, c := range got {
		contents[i] = c.Content
	}
	assert.Equal(t, []string{"third", "second", "first"}, contents)

	_, err = f.comments.GetComments(ctx, bob, private.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := f.comments.GetComments(ctx, alice, private.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := f.comments.GetComments(ctx, nil, f.createPrompt(t, nil, "Quiet", true).ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()

	t.Run("only the author may delete", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPrompt(t, nil, "Discussed", true)
		c := f.addComment(t, alice, p.ID, "mine", nil)

		assert.ErrorIs(t, f.comments.DeleteComment(ctx, nil, c.ID), ErrUnauthenticated)
		assert.ErrorIs(t, f.comments.DeleteComment(ctx, bob, c.ID), ErrUnauthorized)
		assert.ErrorIs(t, f.comments.DeleteComment(ctx, alice, "missing"), ErrNotFound)
		require.NoError(t, f.comments.DeleteComment(ctx, alice, c.ID))

		left, err := f.comments.GetComments(ctx, nil, p.ID)
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("replies are deleted with their ancestor", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPrompt(t, nil, "Discussed", true)

		root := f.addComment(t, alice, p.ID, "root", nil)
		child := f.addComment(t, bob, p.ID, "child", &root.ID)
		f.addComment(t, alice, p.ID, "grandchild", &child.ID)
		f.addComment(t, bob, p.ID, "sibling of child", &root.ID)
		survivor := f.addComment(t, bob, p.ID, "unrelated", nil)

		require.NoError(t, f.comments.DeleteComment(ctx, alice, root.ID))

		var left []models.Comment
		require.NoError(t, f.db.Find(&left).Error)
		require.Len(t, left, 1)
		assert.Equal(t, survivor.ID, left[0].ID)
	})
}
