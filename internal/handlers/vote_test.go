package handlers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikedPromptsKeepsMostRecent(t *testing.T) {
	var l likedPrompts
	for i := 0; i < maxLikedPrompts+10; i++ {
		l = l.with(fmt.Sprintf("p%d", i))
	}
	assert.Len(t, l, maxLikedPrompts)
	assert.False(t, l.has("p0"), "oldest entries rotate out")
	assert.True(t, l.has(fmt.Sprintf("p%d", maxLikedPrompts+9)))

	// Liking again moves an id to the newest position instead of duplicating it.
	l = l.with("p20")
	assert.Len(t, l, maxLikedPrompts)
	assert.Equal(t, "p20", l[len(l)-1])

	l = l.without("p20")
	assert.False(t, l.has("p20"))
	assert.Len(t, l, maxLikedPrompts-1)
}

func TestLikedPromptsString(t *testing.T) {
	assert.Equal(t, "a,b", likedPrompts{"a", "b"}.String())
	assert.Equal(t, "", likedPrompts(nil).String())
}
