package cache

import (
	"strings"
	"testing"

	"github.com/ShivaAryal/constitution-search/pkg/config"
)

func TestBuildKeyNormalizesQuestion(t *testing.T) {
	c := New(nil, config.RedisConfig{})

	base := c.buildKey("what is the right to equality", "English")
	variants := []string{
		"What Is The Right To Equality",
		"  what is the   right to equality  ",
		"what\tis the right\nto equality",
	}
	for _, v := range variants {
		if got := c.buildKey(v, "English"); got != base {
			t.Errorf("buildKey(%q) = %q, want %q", v, got, base)
		}
	}
}

func TestBuildKeySeparatesLanguages(t *testing.T) {
	c := New(nil, config.RedisConfig{})
	if c.buildKey("equality", "English") == c.buildKey("equality", "Nepali") {
		t.Error("the same question in different languages must not share a key")
	}
}

func TestBuildKeyPrefix(t *testing.T) {
	c := New(nil, config.RedisConfig{})
	key := c.buildKey("equality", "English")
	if !strings.HasPrefix(key, keyPrefix) {
		t.Errorf("key %q lacks the %q prefix used by Invalidate", key, keyPrefix)
	}
}
