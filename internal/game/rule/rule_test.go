package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/atlas/internal/dictionary"
)

func TestRandomLetters(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 2000 {
		l := RandomLetters{}.Letter()
		assert.Len(t, l, 1)
		assert.Contains(t, alphabet, l)
		seen[l] = true
	}
	assert.Greater(t, len(seen), 20)
}

func TestLastLetter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		place string
		want  string
	}{
		{"agra", "a"},
		{"Oslo", "o"},
		{"buenos aires", "s"},
		{"st. john's", "s"},
		{"bogota.", "a"},
		{"123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.place, func(t *testing.T) {
			assert.Equal(t, tt.want, LastLetter(tt.place))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dict := dictionary.New([]string{"agra", "accra", "berlin"})
	used := map[string]struct{}{"accra": {}}

	tests := []struct {
		name   string
		place  string
		letter string
		want   Verdict
	}{
		{"accepted", "agra", "a", Accepted},
		{"uppercase letter", "agra", "A", Accepted},
		{"right letter, already used", "accra", "a", AlreadyUsed},
		{"right letter, unknown place", "atlantis", "a", UnknownPlace},
		{"wrong letter, valid unused place", "berlin", "a", WrongLetter},
		{"no letter dealt", "agra", "", WrongLetter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.place, tt.letter, used, dict))
		})
	}
}

func TestVerdict_Message(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Accepted.Message())
	assert.NotEmpty(t, AlreadyUsed.Message())
	assert.NotEqual(t, AlreadyUsed.Message(), UnknownPlace.Message())
	assert.Equal(t, "already_used", AlreadyUsed.String())
}
