package textmatch

import "testing"

func TestContainsFold(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{"ascii same case", "Hello", "Hello", true},
		{"ascii folded", "Hello", "hello", true},
		{"ascii substring", "say hello there", "HELLO", true},
		{"cyrillic folded", "Придумай", "придумай", true},
		{"cyrillic inside", "ну-ка ПРИДУМАЙ что-нибудь", "придумай", true},
		{"empty needle", "anything", "", true},
		{"empty haystack", "", "x", false},
		{"both empty", "", "", true},
		{"no match", "Hello", "world", false},
		{"needle longer than haystack", "hi", "hello", false},
		{"partial prefix repeated", "aabaabaaab", "aabaaab", true},
		{"backtracking miss", "aabaabaab", "aabaaab", false},
		{"dotted capital I matches itself", "stop İstanbul now", "İstanbul", true},
		{"dotted capital I is not plain i", "İ", "i", false},
		{"mixed scripts", "draw нарисуй cat", "НАРИСУЙ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsFold(tt.haystack, tt.needle); got != tt.want {
				t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
			}
		})
	}
}

func TestEqualFold(t *testing.T) {
	tests := []struct {
		a, b rune
		want bool
	}{
		{'a', 'A', true},
		{'д', 'Д', true},
		{'a', 'b', false},
		{'İ', 'İ', true},
		{'İ', 'i', false}, // lowercase of İ is "i" plus a combining dot
	}

	for _, tt := range tests {
		if got := equalFold(tt.a, tt.b); got != tt.want {
			t.Errorf("equalFold(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := equalFold(tt.b, tt.a); got != tt.want {
			t.Errorf("equalFold(%q, %q) = %v, want %v", tt.b, tt.a, got, tt.want)
		}
	}
}
