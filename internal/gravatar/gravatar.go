// Package gravatar builds avatar URLs for users from their email address.
package gravatar

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/jon4hz/khaki/internal/config"
)

const baseURL = "https://www.gravatar.com/avatar/"

// Avatar describes how a user is pictured in the user list.
type Avatar struct {
	// URL is the Gravatar image, empty if Gravatar is disabled or the user has no email.
	URL string
	// Initials are shown when no image is available.
	Initials string
}

// Resolver creates avatars according to the Gravatar configuration.
type Resolver struct {
	cfg *config.GravatarConfig
}

// New validates the configuration and returns a Resolver.
// A nil or disabled configuration yields a Resolver that only produces initials.
func New(cfg *config.GravatarConfig) (*Resolver, error) {
	if cfg != nil && cfg.Enabled {
		if cfg.DefaultImage != "" && !IsValidDefaultImage(cfg.DefaultImage) {
			return nil, fmt.Errorf("invalid gravatar default image %q", cfg.DefaultImage)
		}
		if cfg.Rating != "" && !IsValidRating(cfg.Rating) {
			return nil, fmt.Errorf("invalid gravatar rating %q", cfg.Rating)
		}
		if cfg.Size != 0 && !IsValidSize(cfg.Size) {
			return nil, fmt.Errorf("invalid gravatar size %d", cfg.Size)
		}
	}
	return &Resolver{cfg: cfg}, nil
}

// Avatar returns the avatar of a user.
func (r *Resolver) Avatar(name, email string) Avatar {
	var cfg *config.GravatarConfig
	if r != nil {
		cfg = r.cfg
	}
	return Avatar{
		URL:      GenerateURL(email, cfg),
		Initials: Initials(name),
	}
}

// GenerateURL generates a Gravatar URL for the given email address using the provided configuration.
// Returns an empty string if Gravatar is disabled or email is empty.
func GenerateURL(email string, cfg *config.GravatarConfig) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	u := baseURL + fmt.Sprintf("%x", hash)

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", strconv.Itoa(cfg.Size))
	}

	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Initials returns up to two uppercase initials of a display name.
func Initials(name string) string {
	initials := make([]rune, 0, 2)
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		initials = append(initials, unicode.ToUpper(r))
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return string(initials)
}

// IsValidDefaultImage checks if the provided default image value is valid for Gravatar.
func IsValidDefaultImage(defaultImage string) bool {
	switch defaultImage {
	case "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank":
		return true
	}
	return false
}

// IsValidRating checks if the provided rating value is valid for Gravatar.
func IsValidRating(rating string) bool {
	switch rating {
	case "g", "pg", "r", "x":
		return true
	}
	return false
}

// IsValidSize checks if the provided size value is valid for Gravatar (1-2048 pixels).
func IsValidSize(size int) bool {
	return size >= 1 && size <= 2048
}
