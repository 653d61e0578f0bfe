package fileinfo

import "strings"

// WildcardMatch implements the classic 4-pointer iterative glob match with
// backtracking on '*', ported from the original `wildcard_match` in
// background.rs: '?' matches exactly one char, '*' matches any sequence
// including empty, everything else is literal, comparison is
// case-insensitive.
func WildcardMatch(text, pattern string) bool {
	t := []rune(strings.ToLower(text))
	p := []rune(strings.ToLower(pattern))

	var ti, pi, starIdx, matchIdx int
	starIdx, matchIdx = -1, 0

	for ti < len(t) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == t[ti]):
			ti++
			pi++
		case pi < len(p) && p[pi] == '*':
			starIdx = pi
			matchIdx = ti
			pi++
		case starIdx != -1:
			pi = starIdx + 1
			matchIdx++
			ti = matchIdx
		default:
			return false
		}
	}

	for pi < len(p) && p[pi] == '*' {
		pi++
	}

	return pi == len(p)
}

// IsGlob reports whether a find query should be treated as a glob pattern
// rather than a plain substring, per §4.E.1.
func IsGlob(query string) bool {
	return strings.ContainsAny(query, "*?")
}

// QueryMatches implements the find match predicate: glob if the query
// contains '*'/'?', substring otherwise. The caller is responsible for
// trimming/lowercasing the query once up front; name is matched
// case-insensitively either way.
func QueryMatches(name, query string) bool {
	if IsGlob(query) {
		return WildcardMatch(name, query)
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}
