package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"identical", "orari", "orari", 100},
		{"verbatim substring", "a che ora siete aperti", "aperti", 100},
		{"verbatim substring in middle", "quali sono gli orari di oggi", "orari", 100},
		{"both empty", "", "", 100},
		{"one empty", "ciao", "", 0},
		{"other empty", "", "ciao", 0},
		{"no overlap", "xyz", "abc", 0},
		// Equal length, 7 of 10 runes in common: 200*7/20 = 70 exactly.
		{"seventy exact", "abcdefgxyz", "abcdefghij", 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartialRatio(tt.a, tt.b))
		})
	}
}

func TestPartialRatioSymmetric(t *testing.T) {
	a, b := "a che ora siete aperti?", "aperto"
	assert.Equal(t, PartialRatio(a, b), PartialRatio(b, a))
}

func TestPartialRatioRange(t *testing.T) {
	pairs := [][2]string{
		{"a che ora siete aperti?", "aperto"},
		{"mi consigliate un piano di allenamento?", "orari"},
		{"prezzi del coworking", "quanto costa"},
		{"è", "e"},
	}
	for _, p := range pairs {
		score := PartialRatio(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0, "pair %q/%q", p[0], p[1])
		assert.LessOrEqual(t, score, 100, "pair %q/%q", p[0], p[1])
	}
}

func TestPartialRatioCloseMatch(t *testing.T) {
	// "aperti" against keyword "aperto": 5 of 6 runes align in the best
	// window, 200*5/12 rounds to 83.
	assert.Equal(t, 83, PartialRatio("a che ora siete aperti?", "aperto"))
}
