package config

import (
	"fmt"
)

// Validates that the given string is valid for use as a domain in a cookie.
// Labels are letters, digits and dashes, separated by single periods. A
// leading period is allowed, dashes may not start or end a label.
func isValidCookieDomain(d string) bool {
	if len(d) == 0 {
		return false
	}
	var last rune
	for _, r := range d {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-':
			if last == 0 || last == '-' || last == '.' {
				return false
			}
		case r == '.':
			if last == '-' || last == '.' {
				return false
			}
		default:
			return false
		}
		last = r
	}
	return last != '-'
}

// Returns true if the string given is valid for use as a cookie name. Cookie
// names can use any US-ASCII character except control characters and some
// limited special characters.
func isValidCookieName(s string) bool {
	for _, r := range s {
		switch r {
		case '[', ']', '{', '}', '(', ')', '<', '>':
			return false
		case '@', ',', ';', ':', '\\', '"', '/', '?', '=':
			return false
		}
		if r <= 32 || r >= 127 {
			return false
		}
	}
	return len(s) > 0
}

// Reports every item in list that repeats an earlier one. Each repeated
// value is only reported once.
func hasDuplicates[T comparable](name string, list []T) (errors []string) {
	seen := make(map[T]bool, len(list))
	for i, s := range list {
		if reported, ok := seen[s]; !ok {
			seen[s] = false
		} else if !reported {
			errors = append(errors, fmt.Sprintf(
				"%s: Duplicate item in the list at index %d: %v",
				name,
				i,
				s))
			seen[s] = true
		}
	}
	return
}

// Returns an error if any of the items in the list are empty ("").
func hasEmpty(name string, list []string) (errors []string) {
	for i, s := range list {
		if s == "" {
			errors = append(errors, fmt.Sprintf(
				"%s: List contains an empty string at index %d",
				name,
				i,
			))
		}
	}
	return
}
