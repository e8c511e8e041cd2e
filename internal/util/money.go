package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Matches salary-style dollar amounts like "$1.2 million" or "$750,000".
	moneyPattern = regexp.MustCompile(`(?i)\$?\s*(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*(million|thousand|[mk]\b)?`)

	salaryContext   = regexp.MustCompile(`(?i)salary|contract|deal|extension|per year|annually|annual|base`)
	boostContext    = regexp.MustCompile(`(?i)per year|annually|annual|salary`)
	penaltyContext  = regexp.MustCompile(`(?i)buyout|bonus`)
	rejectedContext = regexp.MustCompile(`(?i)signing bonus|cap hit`)
)

// ParseMoney converts a human-written money string to an integer dollar
// count. Currency symbols, thousands separators, and "million"/"m"/
// "thousand"/"k" suffixes are accepted. Unparseable input returns nil,
// never zero.
func ParseMoney(input string) *int64 {
	s := strings.TrimSpace(input)
	if s == "" || s == "-" {
		return nil
	}

	unit := int64(1)
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "million"):
		unit = 1_000_000
	case strings.Contains(lower, "thousand"):
		unit = 1_000
	case strings.HasSuffix(strings.TrimRight(lower, ". "), "m"):
		unit = 1_000_000
	case strings.HasSuffix(strings.TrimRight(lower, ". "), "k"):
		unit = 1_000
	}

	var cleaned strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			cleaned.WriteRune(r)
		}
	}
	if cleaned.Len() == 0 {
		return nil
	}

	value, err := strconv.ParseFloat(cleaned.String(), 64)
	if err != nil {
		return nil
	}
	out := int64(value * float64(unit))
	return &out
}

// SalaryMention is one accepted figure found in unstructured text.
type SalaryMention struct {
	Amount int64
	Text   string
	score  int
}

// ExtractSalary pulls the most plausible annual salary figure out of a
// media snippet. A figure is only accepted when the text carries salary
// context, the amount sits inside [minPlausible, maxPlausible], and no
// disqualifying phrase ("signing bonus", "cap hit") appears next to it.
// Among qualifying figures, the one with the best nearby-keyword score
// wins; amount breaks ties.
func ExtractSalary(text string, minPlausible, maxPlausible int64) *SalaryMention {
	if !salaryContext.MatchString(text) {
		return nil
	}

	var best *SalaryMention
	for _, loc := range moneyPattern.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		amount := ParseMoney(raw)
		if amount == nil || *amount < minPlausible || *amount > maxPlausible {
			continue
		}

		window := contextWindow(text, loc[0], loc[1], 60)
		if rejectedContext.MatchString(window) {
			continue
		}

		score := 0
		if boostContext.MatchString(window) {
			score++
		}
		if penaltyContext.MatchString(window) {
			score--
		}

		mention := &SalaryMention{Amount: *amount, Text: strings.TrimSpace(raw), score: score}
		if best == nil || mention.score > best.score ||
			(mention.score == best.score && mention.Amount > best.Amount) {
			best = mention
		}
	}

	return best
}

func contextWindow(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
