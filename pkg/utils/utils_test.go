package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	a, b := GenerateID("wi"), GenerateID("wi")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^wi_[0-9a-f]{32}$`, a)
	assert.Len(t, GenerateID(""), 32)
}

func TestGenerateTicketKey(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^TCK-[0-9A-F]{8}$`), GenerateTicketKey())
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"hardware", "Incident"}, NormalizeTags([]string{" Incident", "hardware", "incident", "", "  "}))
	assert.Empty(t, NormalizeTags(nil))
}

func TestFormatTimeAndValidateText(t *testing.T) {
	assert.Equal(t, "2026-03-01 09:05:00", FormatTime(time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)))
	assert.True(t, ValidateText("hello", 10))
	assert.False(t, ValidateText("   ", 10))
	assert.False(t, ValidateText("hello world", 5))
}
