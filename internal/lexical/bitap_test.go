package lexical

import (
	"strings"
	"testing"
)

func TestBitapExactMatchAtStart(t *testing.T) {
	score, ok := bitapSearch([]rune("equality"), []rune("equality"), 0.4)
	if !ok {
		t.Fatal("expected a match")
	}
	if score != 0 {
		t.Errorf("score = %v, want 0 for exact match at location 0", score)
	}
}

func TestBitapLocationPenalty(t *testing.T) {
	// Exact match ten runes in: no edit errors, location costs 10/100.
	text := []rune("aaaaaaaaaabcd")
	score, ok := bitapSearch(text, []rune("bcd"), 0.4)
	if !ok {
		t.Fatal("expected a match")
	}
	if score != 0.1 {
		t.Errorf("score = %v, want 0.1", score)
	}
}

func TestBitapSingleSubstitution(t *testing.T) {
	score, ok := bitapSearch([]rune("constitution"), []rune("constetution"), 0.4)
	if !ok {
		t.Fatal("expected a match")
	}
	want := 1.0 / 12.0
	if score < want-1e-9 || score > want+1e-9 {
		t.Errorf("score = %v, want %v (one error over twelve runes)", score, want)
	}
}

func TestBitapNoMatchAboveThreshold(t *testing.T) {
	if _, ok := bitapSearch([]rune("budget"), []rune("equality"), 0.4); ok {
		t.Error("expected no match for unrelated strings")
	}
}

func TestBitapEmptyInputs(t *testing.T) {
	if _, ok := bitapSearch(nil, []rune("abc"), 0.4); ok {
		t.Error("empty text must not match")
	}
	if _, ok := bitapSearch([]rune("abc"), nil, 0.4); ok {
		t.Error("empty pattern must not match")
	}
}

func TestBitapLongPatternTruncated(t *testing.T) {
	long := strings.Repeat("a", 70)
	score, ok := bitapSearch([]rune(long), []rune(long), 0.4)
	if !ok {
		t.Fatal("expected a match for identical long strings")
	}
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
}

func TestBitapScore(t *testing.T) {
	tests := []struct {
		errors, location, patternLen int
		want                         float64
	}{
		{0, 0, 10, 0},
		{1, 0, 10, 0.1},
		{0, 50, 10, 0.5},
		{2, 10, 10, 0.3},
	}
	for _, tt := range tests {
		if got := bitapScore(tt.errors, tt.location, tt.patternLen); got != tt.want {
			t.Errorf("bitapScore(%d, %d, %d) = %v, want %v", tt.errors, tt.location, tt.patternLen, got, tt.want)
		}
	}
}
