package http

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation constants
const (
	MaxUsernameLength = 50
	MaxPhoneLength    = 32
	MaxBodyLength     = 10000
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
var phonePattern = regexp.MustCompile(`^[0-9]+$`)

// ValidUsername checks if an operator username is safe (alphanumeric + underscore + hyphen)
func ValidUsername(s string) bool {
	return s != "" && len(s) <= MaxUsernameLength && usernamePattern.MatchString(s)
}

// ValidPhoneNumber checks if a contact address is a bare phone number
func ValidPhoneNumber(s string) bool {
	return s != "" && len(s) <= MaxPhoneLength && phonePattern.MatchString(s)
}

// SanitizeString removes null bytes and invalid UTF-8
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
