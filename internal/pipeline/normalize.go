package pipeline

import (
	"regexp"
	"strings"

	"coachdb/internal/config"
	"coachdb/internal/util"
)

var (
	reNonAlpha   = regexp.MustCompile(`[^a-zA-Z\s]`)
	reNonSlug    = regexp.MustCompile(`[^a-z0-9\s-]`)
	reSlugSpaces = regexp.MustCompile(`\s+`)
	reInitial    = regexp.MustCompile(`^[A-Z]\.\s`)
)

var nameSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {},
}

// Normalizer converts raw free-text identity fields into canonical
// comparison keys. All methods are total: garbage in, best-effort out,
// never an error.
type Normalizer struct {
	aliases config.AliasConfig
}

func NewNormalizer(aliases config.AliasConfig) *Normalizer {
	return &Normalizer{aliases: aliases}
}

// PersonKey produces the comparison key for a person name: honorific
// suffixes stripped, lower-cased, non-alphabetic characters removed. The
// display name is never derived from this.
func (n *Normalizer) PersonKey(raw string) string {
	cleaned := reNonAlpha.ReplaceAllString(raw, " ")
	tokens := strings.Fields(strings.ToLower(cleaned))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, skip := nameSuffixes[t]; skip {
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// SchoolSlug maps a display name to its stable slug. Known irregular names
// resolve through the alias table; everything else is mechanical. School
// identity is exact+alias on purpose: a false school merge costs far more
// than a missed one, so no fuzzy matching here.
func (n *Normalizer) SchoolSlug(raw string) string {
	name := strings.ToLower(util.CollapseWhitespace(raw))
	if name == "" {
		return ""
	}
	if slug, ok := n.aliases.NameAliases[name]; ok {
		return slug
	}
	s := strings.ReplaceAll(name, "&", " and ")
	s = reNonSlug.ReplaceAllString(s, "")
	s = reSlugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-")
}

// CanonicalSlug maps a source site's slug to ours where they differ.
func (n *Normalizer) CanonicalSlug(sourceSlug string) string {
	slug := strings.ToLower(strings.TrimSpace(sourceSlug))
	if mapped, ok := n.aliases.SlugAliases[slug]; ok {
		return mapped
	}
	return slug
}

var positionAbbrev = map[string]string{
	"HC":    "Head Coach",
	"OC":    "Offensive Coordinator",
	"DC":    "Defensive Coordinator",
	"ST":    "Special Teams Coordinator",
	"STC":   "Special Teams Coordinator",
	"CO-OC": "Co-Offensive Coordinator",
	"CO-DC": "Co-Defensive Coordinator",
}

// StandardizePosition expands the handful of common title abbreviations.
// It is a lookup, not a classifier: unknown input passes through with
// whitespace collapsed.
func StandardizePosition(raw string) string {
	collapsed := util.CollapseWhitespace(raw)
	if full, ok := positionAbbrev[strings.ToUpper(collapsed)]; ok {
		return full
	}
	return collapsed
}

// IsHeadCoachPosition reports whether a title names the head coach.
// "Assistant Head Coach" must not count.
func IsHeadCoachPosition(title string) bool {
	t := strings.ToLower(util.CollapseWhitespace(title))
	if t == "hc" || t == "head coach" {
		return true
	}
	return strings.Contains(t, "head coach") && !strings.Contains(t, "assistant")
}

// RepairName fixes names where a hidden sort-key fragment (the last name,
// used for table ordering) was concatenated directly before the visible
// name, e.g. "Dottin-CarterDennis Dottin-Carter" for Dennis Dottin-Carter.
// Clean names pass through untouched; when in doubt it does nothing, since
// a false repair corrupts good data.
func RepairName(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return name
	}

	first := []rune(parts[0])
	rest := strings.Join(parts[1:], " ")
	lastName := parts[len(parts)-1]

	// Normal first names are rarely this long; concatenated ones are.
	if len(first) < 8 {
		return name
	}

	lastKey := stripJoiners(strings.ToLower(lastName))
	var bestPrefix string
	var bestSuffix string
	for i := 3; i < len(first)-1; i++ {
		suffix := string(first[i:])
		if suffix == "" || !isUpper(rune(suffix[0])) {
			continue
		}
		prefix := stripJoiners(strings.ToLower(string(first[:i])))
		if prefix == "" || lastKey == "" {
			continue
		}
		// The sort key may be the whole last name or a fragment of it
		// ("Daniel" for "McDaniel"), so accept containment either way.
		if strings.Contains(lastKey, prefix) || strings.Contains(prefix, lastKey) ||
			strings.HasSuffix(lastKey, prefix) || strings.HasSuffix(prefix, lastKey) {
			if len(prefix) > len(bestPrefix) {
				bestPrefix = prefix
				bestSuffix = suffix
			}
		}
	}

	if bestSuffix == "" {
		return name
	}
	// A bare initial is not a believable first name; leave the row alone.
	if reInitial.MatchString(bestSuffix) || len(bestSuffix) <= 2 {
		return name
	}
	return bestSuffix + " " + rest
}

func stripJoiners(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "'", "")
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
