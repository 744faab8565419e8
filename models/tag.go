package models

import "strings"

// SplitTokens split a space-separated tag string into tokens
func SplitTokens(s string) []string {
	return strings.Fields(s)
}

// TokenSet order-independent multiset of tokens
func TokenSet(s string) map[string]int {
	set := make(map[string]int)
	for _, token := range SplitTokens(s) {
		set[token]++
	}

	return set
}

// EqualTokenSets order-independent comparison of two tag strings.
// nil/empty/whitespace-only strings compare equal to each other.
func EqualTokenSets(a, b string) bool {
	sa := TokenSet(a)
	sb := TokenSet(b)
	if len(sa) != len(sb) {
		return false
	}

	for token, n := range sa {
		if sb[token] != n {
			return false
		}
	}

	return true
}

// ContainsTokenFold case-insensitive exact token match
func ContainsTokenFold(s, token string) bool {
	for _, v := range SplitTokens(s) {
		if strings.EqualFold(v, token) {
			return true
		}
	}

	return false
}
