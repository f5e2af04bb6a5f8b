package languages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"FR", "fr"},
		{" pt-BR ", "pt"},
		{"zh-Hant", "zh"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	_, err := Normalize("")
	assert.Error(t, err)

	_, err = Normalize("not a language")
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "French", Name("fr"))
	assert.Equal(t, "English", Name("en"))
	assert.Equal(t, "???", Name("???"))
}

func TestList_Defaults(t *testing.T) {
	got := List(nil)
	require.Len(t, got, 6)
	assert.Equal(t, Language{Code: "en", Name: "English"}, got[0])
	assert.Equal(t, Language{Code: "fr", Name: "French"}, got[5])
}

func TestList_DropsDuplicatesAndInvalid(t *testing.T) {
	got := List([]string{"de", "de-AT", "!!", "ja"})
	require.Len(t, got, 2)
	assert.Equal(t, "de", got[0].Code)
	assert.Equal(t, "ja", got[1].Code)
}

func TestSet(t *testing.T) {
	s := NewSet([]string{"en", "fr-CA", "bogus code"})
	assert.True(t, s.Has("en-GB"))
	assert.True(t, s.Has("fr"))
	assert.False(t, s.Has("es"))
	assert.False(t, s.Has(""))
}
