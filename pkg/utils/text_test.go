package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	cases := map[string]int{
		"":                         0,
		"   ":                      0,
		"one":                      1,
		"  leading and trailing  ": 3,
		"tabs\tand\nnewlines here": 4,
		"multiple     spaces   ok": 3,
	}
	for in, want := range cases {
		assert.Equal(t, want, CountWords(in), "input %q", in)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "the-lost-kingdom", Slugify("The Lost Kingdom"))
	assert.Equal(t, "hello-world", Slugify("  Hello,   World!! "))
	assert.Equal(t, "chapter-10", Slugify("Chapter 10"))
	assert.Equal(t, "caf", Slugify("Café"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestUniqueSlug(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "test-1700000000123", UniqueSlug("Test", at))
	assert.Equal(t, "1700000000123", UniqueSlug("???", at))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("  short ", 10))
	assert.Equal(t, "abc...", Excerpt("abcdef", 3))
}
