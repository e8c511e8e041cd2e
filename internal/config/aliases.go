package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasConfig is the declarative school-identity table: which display-name
// variants map to which canonical slug, which source-site slugs differ from
// ours, and which school rows are known duplicates to merge. It is business
// data, not code, so it is editable as YAML and merged over the built-in set.
type AliasConfig struct {
	// NameAliases maps a lower-cased display name to its canonical slug.
	NameAliases map[string]string `yaml:"name_aliases"`
	// SlugAliases maps a source site's slug to our canonical slug.
	SlugAliases map[string]string `yaml:"slug_aliases"`
	// Merges lists duplicate school rows discovered in the store.
	Merges []SchoolMerge `yaml:"merges"`
}

// SchoolMerge names two slugs representing the same institution; coaches at
// Remove are repointed to Keep and the Remove row is deleted.
type SchoolMerge struct {
	Keep   string `yaml:"keep"`
	Remove string `yaml:"remove"`
	Note   string `yaml:"note,omitempty"`
}

// DefaultAliases covers the irregular institution names observed in the
// source feeds: parenthetical campus disambiguators, traditional nicknames,
// abbreviation-only schools, and military-academy naming.
func DefaultAliases() AliasConfig {
	return AliasConfig{
		NameAliases: map[string]string{
			"miami (fl)":            "miami-fl",
			"miami (oh)":            "miami-oh",
			"miami":                 "miami-fl",
			"miami university":      "miami-oh",
			"ole miss":              "mississippi",
			"north carolina state":  "north-carolina-state",
			"nc state":              "north-carolina-state",
			"army west point":       "army",
			"pitt":                  "pittsburgh",
			"usc":                   "southern-california",
			"cal":                   "california",
			"uconn":                 "connecticut",
			"umass":                 "massachusetts",
			"unlv":                  "nevada-las-vegas",
			"app state":             "appalachian-state",
			"texas a&m":             "texas-am",
			"hawai'i":               "hawaii",
			"san jose state":        "san-jose-state",
			"louisiana-monroe":      "louisiana-monroe",
			"ul monroe":             "louisiana-monroe",
			"southern miss":         "southern-mississippi",
			"wku":                   "western-kentucky",
			"niu":                   "northern-illinois",
			"byu":                   "brigham-young",
			"smu":                   "southern-methodist",
			"tcu":                   "texas-christian",
			"ucf":                   "central-florida",
			"usf":                   "south-florida",
			"fau":                   "florida-atlantic",
			"fiu":                   "florida-international",
			"utsa":                  "texas-san-antonio",
			"utep":                  "texas-el-paso",
			"navy":                  "navy",
			"naval academy":         "navy",
			"air force":             "air-force",
			"air force academy":     "air-force",
			"jax state":             "jacksonville-state",
			"jacksonville state":    "jacksonville-state",
			"middle tennessee":      "middle-tennessee",
			"mtsu":                  "middle-tennessee",
		},
		SlugAliases: map[string]string{
			"app-state":  "appalachian-state",
			"jax-state":  "jacksonville-state",
			"miami":      "miami-fl",
			"miami-ohio": "miami-oh",
			"nc-state":   "north-carolina-state",
			"niu":        "northern-illinois",
			"ole-miss":   "mississippi",
			"pitt":       "pittsburgh",
			"uconn":      "connecticut",
			"umass":      "massachusetts",
			"unlv":       "nevada-las-vegas",
			"usc":        "southern-california",
			"wku":        "western-kentucky",
		},
		Merges: []SchoolMerge{
			{Keep: "texas-am", Remove: "texas-a&m", Note: "punctuation variant loaded by the salary feed"},
			{Keep: "mississippi", Remove: "ole-miss", Note: "traditional nickname"},
			{Keep: "pittsburgh", Remove: "pitt", Note: "abbreviated variant"},
		},
	}
}

// LoadAliases returns the defaults merged with the YAML file at path, if
// any. File entries win over defaults; merges are appended.
func LoadAliases(path string) (AliasConfig, error) {
	out := DefaultAliases()
	if strings.TrimSpace(path) == "" {
		return out, nil
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return AliasConfig{}, fmt.Errorf("read alias config: %w", err)
	}
	var file AliasConfig
	if err := yaml.Unmarshal(blob, &file); err != nil {
		return AliasConfig{}, fmt.Errorf("parse alias config %s: %w", path, err)
	}

	for name, slug := range file.NameAliases {
		out.NameAliases[strings.ToLower(strings.TrimSpace(name))] = slug
	}
	for src, slug := range file.SlugAliases {
		out.SlugAliases[strings.ToLower(strings.TrimSpace(src))] = slug
	}
	out.Merges = append(out.Merges, file.Merges...)

	return out, nil
}
