package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jfenske/worldwise/internal/domain"
)

// TestConvertToEmoji_KnownFlags pins the exact glyphs for a handful of
// country codes. The offset must be exact: a wrong one produces garbage
// glyphs silently, not an error.
func TestConvertToEmoji_KnownFlags(t *testing.T) {
	assert.Equal(t, "\U0001F1FA\U0001F1F8", domain.ConvertToEmoji("US"))
	assert.Equal(t, "\U0001F1EB\U0001F1F7", domain.ConvertToEmoji("FR"))
	assert.Equal(t, "\U0001F1EF\U0001F1F5", domain.ConvertToEmoji("JP"))
	assert.Equal(t, "\U0001F1F5\U0001F1F9", domain.ConvertToEmoji("PT"))
}

func TestConvertToEmoji_LowercaseInput(t *testing.T) {
	assert.Equal(t, domain.ConvertToEmoji("FR"), domain.ConvertToEmoji("fr"))
}

func TestConvertToEmoji_Empty(t *testing.T) {
	assert.Equal(t, "", domain.ConvertToEmoji(""))
}
