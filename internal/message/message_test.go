package message

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_ShowSummarizeThreshold(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"short", "Bonjour tout le monde", false},
		{"exactly 150", strings.Repeat("a", 150), false},
		{"151", strings.Repeat("a", 151), true},
		{"200", strings.Repeat("b", 200), true},
		{"150 multibyte runes", strings.Repeat("é", 150), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(1, tt.text, "en", 0, now)
			assert.Equal(t, tt.want, m.ShowSummarize)
			assert.Equal(t, tt.text, m.Text)
			assert.Equal(t, now, m.CreatedAt)
		})
	}
}

func TestNew_CustomThreshold(t *testing.T) {
	m := New(1, "hello world", "en", 5, time.Now())
	assert.True(t, m.ShowSummarize)
}

func TestCanSummarize(t *testing.T) {
	long := strings.Repeat("word ", 40)

	assert.True(t, New(1, long, "en", 0, time.Now()).CanSummarize())
	assert.False(t, New(1, long, "fr", 0, time.Now()).CanSummarize())
	assert.False(t, New(1, "short", "en", 0, time.Now()).CanSummarize())
}

func TestIDGenerator_StrictlyIncreasing(t *testing.T) {
	var g IDGenerator
	now := time.UnixMilli(1700000000123)

	first := g.Next(now)
	second := g.Next(now)
	third := g.Next(now.Add(-time.Second))
	later := g.Next(now.Add(time.Second))

	assert.Equal(t, int64(1700000000123), first)
	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
	assert.Equal(t, int64(1700000001123), later)
}

func TestIDGenerator_Reset(t *testing.T) {
	var g IDGenerator
	g.Reset(5000)
	assert.Equal(t, int64(5001), g.Next(time.UnixMilli(10)))
}
