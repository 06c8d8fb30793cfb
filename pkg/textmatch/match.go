// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

// Package textmatch implements case-insensitive substring search that is
// correct for codepoints whose lowercase form expands to more than one
// codepoint, which rules out a plain ToLower-then-Contains check.
package textmatch

import "unicode"

// specialLower holds the unconditional SpecialCasing lowercase mappings that
// expand to more than one codepoint. Unicode defines exactly one such
// mapping: U+0130 LATIN CAPITAL LETTER I WITH DOT ABOVE.
var specialLower = map[rune][2]rune{
	'İ': {'i', '̇'},
}

// lowerRune returns the full lowercase expansion of r without allocating.
// n is 1 or 2; only out[:n] is meaningful.
func lowerRune(r rune) (out [2]rune, n int) {
	if exp, ok := specialLower[r]; ok {
		return exp, 2
	}
	out[0] = unicode.ToLower(r)
	return out, 1
}

// equalFold reports whether two codepoints are case-insensitively equal:
// their full lowercase expansions must be codepoint-sequence-equal.
func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	la, na := lowerRune(a)
	lb, nb := lowerRune(b)
	if na != nb {
		return false
	}
	if la[0] != lb[0] {
		return false
	}
	return na == 1 || la[1] == lb[1]
}

// ContainsFold reports whether needle occurs in haystack as a contiguous,
// case-insensitively equal run of codepoints. The empty needle always
// matches. Classic prefix-function (KMP) search with equalFold as the
// comparison; the failure table is the only allocation besides decoding
// the needle.
func ContainsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}

	pat := []rune(needle)
	fail := buildFailure(pat)

	k := 0
	for _, r := range haystack {
		for k > 0 && !equalFold(r, pat[k]) {
			k = fail[k-1]
		}
		if equalFold(r, pat[k]) {
			k++
		}
		if k == len(pat) {
			return true
		}
	}
	return false
}

// buildFailure computes the KMP failure table over pat using equalFold.
func buildFailure(pat []rune) []int {
	fail := make([]int, len(pat))
	k := 0
	for i := 1; i < len(pat); i++ {
		for k > 0 && !equalFold(pat[i], pat[k]) {
			k = fail[k-1]
		}
		if equalFold(pat[i], pat[k]) {
			k++
		}
		fail[i] = k
	}
	return fail
}
