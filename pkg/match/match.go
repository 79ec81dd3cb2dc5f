// Package match implements the keyword matching policy applied to item
// display names. The rules are deliberately simple string containment with a
// length substantiality requirement, kept in one place so the policy can be
// tuned or swapped without touching engine control flow.
package match

import "strings"

// Normalize lowercases and trims a name for comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsSubstantialSubstring reports whether needle occurs inside haystack and
// is longer than half of it. The length requirement keeps short generic
// keywords ("AK-47") from claiming every listing that mentions them.
func IsSubstantialSubstring(needle, haystack string) bool {
	if needle == "" || !strings.Contains(haystack, needle) {
		return false
	}
	return float64(len(needle)) > 0.5*float64(len(haystack))
}

// MatchesKeyword reports whether an item display name satisfies a target
// keyword. Three rules, tested in order: exact equality, the keyword being a
// substantial substring of the name, and the name being a substantial
// substring of the keyword. Inputs are normalized before comparison. An
// empty keyword never matches.
func MatchesKeyword(itemName, keyword string) bool {
	name := Normalize(itemName)
	kw := Normalize(keyword)
	if kw == "" {
		return false
	}
	if name == kw {
		return true
	}
	if IsSubstantialSubstring(kw, name) {
		return true
	}
	return IsSubstantialSubstring(name, kw)
}

// ContainsKeyword reports plain case-insensitive containment of keyword in
// itemName, without the substantiality requirement. Keychain classification
// uses this looser test to leave items alone when they overlap any existing
// target keyword.
func ContainsKeyword(itemName, keyword string) bool {
	kw := Normalize(keyword)
	if kw == "" {
		return false
	}
	return strings.Contains(Normalize(itemName), kw)
}
