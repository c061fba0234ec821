package gravatar

import (
	"testing"

	"github.com/jon4hz/khaki/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceHash = "ff8d9819fc0e12bf0d24892e45987e249a28dce836a85cad60e28eaaa8c6d976"

func TestGenerateURL(t *testing.T) {
	enabled := &config.GravatarConfig{Enabled: true}

	tests := []struct {
		name  string
		email string
		cfg   *config.GravatarConfig
		want  string
	}{
		{name: "disabled", email: "alice@example.com", cfg: &config.GravatarConfig{}, want: ""},
		{name: "nil config", email: "alice@example.com", want: ""},
		{name: "no email", email: "   ", cfg: enabled, want: ""},
		{name: "plain", email: "alice@example.com", cfg: enabled, want: baseURL + aliceHash},
		{name: "normalized", email: "  ALICE@example.COM ", cfg: enabled, want: baseURL + aliceHash},
		{
			name:  "every option",
			email: "alice@example.com",
			cfg:   &config.GravatarConfig{Enabled: true, DefaultImage: "identicon", Rating: "pg", Size: 40},
			want:  baseURL + aliceHash + "?d=identicon&r=pg&s=40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateURL(tt.email, tt.cfg))
		})
	}
}

func TestValidators(t *testing.T) {
	for _, img := range []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"} {
		assert.True(t, IsValidDefaultImage(img), img)
	}
	for _, img := range []string{"", "MP", "gravatar"} {
		assert.False(t, IsValidDefaultImage(img), img)
	}

	for _, rating := range []string{"g", "pg", "r", "x"} {
		assert.True(t, IsValidRating(rating), rating)
	}
	for _, rating := range []string{"", "G", "nc17"} {
		assert.False(t, IsValidRating(rating), rating)
	}

	assert.True(t, IsValidSize(1))
	assert.True(t, IsValidSize(2048))
	assert.False(t, IsValidSize(0))
	assert.False(t, IsValidSize(2049))
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Jose Vicente Carratala", "JV"},
		{"alice", "A"},
		{"  ", "?"},
		{"", "?"},
		{"émile zola", "ÉZ"},
		{"- Bob", "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Initials(tt.name))
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.NoError(t, err)

	_, err = New(&config.GravatarConfig{Enabled: true, DefaultImage: "nope"})
	assert.Error(t, err)

	_, err = New(&config.GravatarConfig{Enabled: true, Rating: "nc17"})
	assert.Error(t, err)

	_, err = New(&config.GravatarConfig{Enabled: true, Size: 4096})
	assert.Error(t, err)

	// invalid values are ignored while disabled
	_, err = New(&config.GravatarConfig{Enabled: false, Size: 4096})
	assert.NoError(t, err)
}

func TestResolver_Avatar(t *testing.T) {
	r, err := New(&config.GravatarConfig{Enabled: true, Size: 40})
	require.NoError(t, err)

	avatar := r.Avatar("Alice Smith", "Alice@Example.com")
	assert.Equal(t, baseURL+aliceHash+"?s=40", avatar.URL)
	assert.Equal(t, "AS", avatar.Initials)

	var disabled *Resolver
	avatar = disabled.Avatar("Bob", "bob@example.com")
	assert.Empty(t, avatar.URL)
	assert.Equal(t, "B", avatar.Initials)
}
