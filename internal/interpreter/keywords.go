package interpreter

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rupeeriser/budget-buddy/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

// classificationOrder is the fixed priority in which keyword sets are tested.
var classificationOrder = []domain.Category{
	domain.CategoryFood,
	domain.CategoryTransport,
	domain.CategoryHealth,
	domain.CategoryEntertainment,
	domain.CategoryShopping,
	domain.CategorySalary,
}

type keywordFile struct {
	Version    int `yaml:"version"`
	Categories []struct {
		Name  string   `yaml:"name"`
		Words []string `yaml:"words"`
	} `yaml:"categories"`
}

type keywordSet struct {
	category domain.Category
	words    []string
	pattern  *regexp.Regexp
}

// KeywordTable maps each category to its trigger words. It is immutable after
// loading and safe for concurrent use.
type KeywordTable struct {
	version int
	sets    []keywordSet
}

var defaultKeywords = sync.OnceValue(func() *KeywordTable {
	table, err := LoadKeywords(defaultKeywordsYAML)
	if err != nil {
		panic(fmt.Sprintf("interpreter: embedded keywords.yaml: %v", err))
	}
	return table
})

// DefaultKeywords returns the process-wide table built from the embedded keywords.yaml.
func DefaultKeywords() *KeywordTable {
	return defaultKeywords()
}

// LoadKeywords decodes and validates a keyword table document.
// The document must list Food, Transport, Health, Entertainment, Shopping and
// Salary, in that order, each with at least one lowercase word.
func LoadKeywords(data []byte) (*KeywordTable, error) {
	var doc keywordFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("LoadKeywords: decode: %w", err)
	}
	if doc.Version < 1 {
		return nil, fmt.Errorf("LoadKeywords: missing or invalid version %d", doc.Version)
	}
	if len(doc.Categories) != len(classificationOrder) {
		return nil, fmt.Errorf("LoadKeywords: want %d categories, got %d", len(classificationOrder), len(doc.Categories))
	}

	table := &KeywordTable{version: doc.Version}
	for i, entry := range doc.Categories {
		want := classificationOrder[i]
		if domain.Category(entry.Name) != want {
			return nil, fmt.Errorf("LoadKeywords: category %d is %q, want %q", i, entry.Name, want)
		}
		if len(entry.Words) == 0 {
			return nil, fmt.Errorf("LoadKeywords: category %q has no words", entry.Name)
		}
		for _, w := range entry.Words {
			if strings.TrimSpace(w) == "" {
				return nil, fmt.Errorf("LoadKeywords: category %q has an empty word", entry.Name)
			}
			if w != strings.ToLower(w) {
				return nil, fmt.Errorf("LoadKeywords: word %q in %q is not lowercase", w, entry.Name)
			}
		}
		table.sets = append(table.sets, keywordSet{
			category: want,
			words:    append([]string(nil), entry.Words...),
			pattern:  boundaryPattern(entry.Words),
		})
	}
	return table, nil
}

// boundaryPattern matches any of words as a whole word. Longer words come
// first so multi-word phrases are preferred over their prefixes.
func boundaryPattern(words []string) *regexp.Regexp {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Version returns the table's version number.
func (t *KeywordTable) Version() int {
	return t.version
}

// Words returns a copy of the words registered for category.
func (t *KeywordTable) Words(category domain.Category) []string {
	for _, set := range t.sets {
		if set.category == category {
			return append([]string(nil), set.words...)
		}
	}
	return nil
}

// Matches reports whether lower contains a whole-word match for category.
// lower must already be lower-cased.
func (t *KeywordTable) Matches(category domain.Category, lower string) bool {
	for _, set := range t.sets {
		if set.category == category {
			return set.pattern.MatchString(lower)
		}
	}
	return false
}

// Classify returns the first category, in priority order, with a whole-word
// match in lower, or Other.
func (t *KeywordTable) Classify(lower string) domain.Category {
	for _, set := range t.sets {
		if set.pattern.MatchString(lower) {
			return set.category
		}
	}
	return domain.CategoryOther
}
