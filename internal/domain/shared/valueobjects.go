// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import "strings"

// ═══════════════════════════════════════════════════════════════════════════
// NRP Value Object
// ═══════════════════════════════════════════════════════════════════════════

// NRP is a student's enrollment number and the directory's primary key.
// It is treated as an opaque string: leading zeros and letters are kept.
type NRP string

// IsValid checks that the NRP is not blank.
func (n NRP) IsValid() bool {
	return strings.TrimSpace(string(n)) != ""
}

// String returns the string representation.
func (n NRP) String() string {
	return string(n)
}

// CleanNRP trims surrounding whitespace the way NewNRP does, without
// rejecting a blank value. Every stored or looked-up NRP passes through it.
func CleanNRP(value string) string {
	return strings.TrimSpace(value)
}

// NewNRP creates an NRP from user input, trimming surrounding whitespace.
func NewNRP(value string) (NRP, error) {
	nrp := NRP(CleanNRP(value))
	if !nrp.IsValid() {
		return "", ErrInvalidNRP
	}
	return nrp, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Theme Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Theme is the persisted colour preference.
type Theme string

const (
	ThemeDay   Theme = "day"
	ThemeNight Theme = "night"
)

// IsValid checks if the theme is one of the known values.
func (t Theme) IsValid() bool {
	return t == ThemeDay || t == ThemeNight
}

// String returns the string representation.
func (t Theme) String() string {
	return string(t)
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeNight {
		return ThemeDay
	}
	return ThemeNight
}

// ParseTheme reads a stored or user supplied value. Anything unknown,
// including an empty string, reads as day. "light" and "dark" are accepted
// as aliases.
func ParseTheme(value string) Theme {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "night", "dark":
		return ThemeNight
	default:
		return ThemeDay
	}
}

// NewTheme validates a theme supplied by a caller who must name one
// explicitly.
func NewTheme(value string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "day", "light":
		return ThemeDay, nil
	case "night", "dark":
		return ThemeNight, nil
	default:
		return "", NewDomainError("settings", "SetTheme", ErrInvalidInput, "theme must be day or night")
	}
}
