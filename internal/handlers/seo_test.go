package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("  short  ", 10))
	assert.Equal(t, "abc...", excerpt("abcdef", 3))
	assert.Equal(t, "提示词...", excerpt("提示词工程", 3))

	assert.Equal(t, "nul gone", excerpt("nul\x00 gone\x1b", 100))
	assert.Equal(t, "tab\tand\nnewline", excerpt("tab\tand\nnewline", 100))
	assert.Equal(t, "emoji 🚀", excerpt("emoji 🚀￾", 100))

	long := strings.Repeat("\x01a", 5)
	assert.Equal(t, "aaa...", excerpt(long, 3), "forbidden characters do not count toward the limit")
}
