package services

import "strings"

// DefaultNegativeTerms is the risk watch-list used when none is configured
func DefaultNegativeTerms() []string {
	return []string{"논란", "소송", "구설", "불매", "갑질", "사과문"}
}

// Classifier flags text containing any watch-list term
type Classifier struct {
	terms []string
}

// NewClassifier creates a classifier over an ordered watch-list
func NewClassifier(terms []string) *Classifier {
	if len(terms) == 0 {
		terms = DefaultNegativeTerms()
	}

	cleaned := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		cleaned = append(cleaned, term)
	}

	return &Classifier{terms: cleaned}
}

// Terms returns the watch-list in match order
func (c *Classifier) Terms() []string {
	return append([]string(nil), c.terms...)
}

// Classify returns the matched terms in watch-list order
func (c *Classifier) Classify(title, summary string) []string {
	var hits []string
	for _, term := range c.terms {
		if strings.Contains(title, term) || strings.Contains(summary, term) {
			hits = append(hits, term)
		}
	}
	return hits
}
