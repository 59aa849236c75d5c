// Package email holds address helpers shared by roster import and rendering.
package email

import (
	"regexp"
	"strings"
	"unicode"
)

var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims and lowercases an address.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsValid performs the shape check used for roster rows.
func IsValid(address string) bool {
	return addressPattern.MatchString(address)
}

// Domain returns the part after '@', or "" when the address has no single '@'.
func Domain(address string) string {
	parts := strings.Split(Normalize(address), "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// FirstName picks the greeting name for a recipient: the first word of the
// full name, falling back to a name derived from the address.
func FirstName(fullName, address string) string {
	if fields := strings.Fields(fullName); len(fields) > 0 {
		return fields[0]
	}
	first, _ := DeriveNameFromEmail(address)
	return first
}

func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
