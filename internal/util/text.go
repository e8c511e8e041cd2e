package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims and squeezes runs of whitespace to single spaces.
func CollapseWhitespace(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// SequenceRatio is an edit-distance similarity in [0,1]: 1 for equal
// strings, 0 for disjoint ones. Substitutions cost 2 so the result behaves
// like the classic difflib-style ratio 2*M/T.
func SequenceRatio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 1
		}
		return 1
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 2
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	total := len(ra) + len(rb)
	dist := prev[len(rb)]
	if dist >= total {
		return 0
	}
	return float64(total-dist) / float64(total)
}

// DiceCoefficient scores bigram overlap between two strings. Kept as an
// alternative scorer for token-heavy inputs.
func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
