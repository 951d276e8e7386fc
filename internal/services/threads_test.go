package services

import (
	"testing"

	"promptdir/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comment(id string, parent *string) models.Comment {
	return models.Comment{ID: id, Content: "content " + id, ParentID: parent}
}

func TestOrganizeComments(t *testing.T) {
	t.Run("reply nests under its root", func(t *testing.T) {
		roots := OrganizeComments([]models.Comment{
			comment("reply", strPtr("root")),
			comment("root", nil),
		})
		require.Len(t, roots, 1)
		assert.Equal(t, "root", roots[0].ID)
		require.Len(t, roots[0].Replies, 1)
		assert.Equal(t, "reply", roots[0].Replies[0].ID)
		assert.Empty(t, roots[0].Replies[0].Replies)
	})

	t.Run("order is kept at every level", func(t *testing.T) {
		roots := OrganizeComments([]models.Comment{
			comment("r2", nil),
			comment("b", strPtr("r1")),
			comment("r1", nil),
			comment("a", strPtr("r1")),
			comment("a1", strPtr("a")),
		})
		require.Len(t, roots, 2)
		assert.Equal(t, "r2", roots[0].ID)
		assert.Equal(t, "r1", roots[1].ID)

		r1 := roots[1]
		require.Len(t, r1.Replies, 2)
		assert.Equal(t, "b", r1.Replies[0].ID)
		assert.Equal(t, "a", r1.Replies[1].ID)
		require.Len(t, r1.Replies[1].Replies, 1)
		assert.Equal(t, "a1", r1.Replies[1].Replies[0].ID)
	})

	t.Run("unresolved parent is dropped", func(t *testing.T) {
		roots := OrganizeComments([]models.Comment{
			comment("root", nil),
			comment("stray", strPtr("gone")),
		})
		require.Len(t, roots, 1)
		assert.Equal(t, "root", roots[0].ID)
		assert.Empty(t, roots[0].Replies)
	})

	t.Run("empty input", func(t *testing.T) {
		roots := OrganizeComments(nil)
		assert.NotNil(t, roots)
		assert.Empty(t, roots)
	})
}
