package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Test Prompt":               "test-prompt",
		"  Hello,   World!  ":       "hello-world",
		"C++ & Go: a comparison":    "c-go-a-comparison",
		"already-a-slug":            "already-a-slug",
		"!!!":                       "",
		"":                          "",
		"Résumé writer":             "r-sum-writer",
		"Version 2.0 -- what's new": "version-2-0-what-s-new",
	}
	for in, want := range cases {
		assert.Equal(t, want, GenerateSlug(in), "GenerateSlug(%q)", in)
	}
}

func TestCache(t *testing.T) {
	c, err := NewCache(2, time.Minute)
	require.NoError(t, err)

	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, 1, c.Get("a"))

	// "b" is now least recently used.
	c.Put("c", 3)
	assert.Nil(t, c.Get("b"))
	assert.Equal(t, 2, c.Len())

	c.Delete("a")
	assert.Nil(t, c.Get("a"))

	c.Set("short", "x", -time.Second)
	assert.Nil(t, c.Get("short"), "expired entries are not returned")
	assert.Nil(t, c.Get("missing"))
}

func TestNewCacheDefaultsSize(t *testing.T) {
	c, err := NewCache(0, time.Minute)
	require.NoError(t, err)
	c.Put("k", "v")
	assert.Equal(t, "v", c.Get("k"))
}

func TestRenderMarkdown(t *testing.T) {
	assert.Empty(t, string(RenderMarkdown("")))

	out := string(RenderMarkdown("**bold** and `code`"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<code>code</code>")

	out = string(RenderMarkdown("<script>alert(1)</script>hello"))
	assert.NotContains(t, out, "<script>")

	out = string(RenderMarkdown("![cat](https://example.com/cat.png)"))
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)

	out = string(RenderMarkdown("[site](https://example.com)"))
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "noopener")
}

func TestEnhanceHTMLContent(t *testing.T) {
	assert.Empty(t, string(EnhanceHTMLContent("")))

	out := string(EnhanceHTMLContent(`<p><img src="x.png"></p>`))
	assert.True(t, strings.HasPrefix(out, "<p>"), "body wrapper is stripped: %s", out)
	assert.Contains(t, out, `loading="lazy"`)
}

func TestOptionalInt(t *testing.T) {
	v, err := OptionalInt("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = OptionalInt(" 4 ")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 4, *v)

	_, err = OptionalInt("four")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Go", "Rust", "Python"}, SplitList([]string{"Go,Rust", " Python ", ""}))
	assert.Empty(t, SplitList(nil))
}
