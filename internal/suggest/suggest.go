// Package suggest ranks candidate item names against partial or misspelled input.
package suggest

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"voxcart/internal/quantity"
)

// Source identifies where a candidate name was collected from.
type Source string

const (
	SourceList    Source = "list"
	SourceHistory Source = "history"
	SourceStaple  Source = "staple"
)

// Candidate is one known item name offered for matching.
type Candidate struct {
	Name     string
	Quantity float64
	Unit     string
	Source   Source
}

// Label renders the candidate with its remembered quantity, if any.
func (c Candidate) Label() string {
	return quantity.Label(c.Name, c.Quantity, c.Unit)
}

// Reason explains which match tier produced a score.
type Reason string

const (
	ReasonExact    Reason = "exact"
	ReasonPrefix   Reason = "prefix"
	ReasonIncludes Reason = "includes"
	ReasonFuzzy    Reason = "fuzzy"
)

// Match is a scored candidate. Score is in [0, 1].
type Match struct {
	Candidate Candidate
	Score     float64
	Reason    Reason
}

// Options tunes match filtering.
type Options struct {
	Limit    int
	MinScore float64
}

// DefaultOptions are the matcher defaults used by interactive suggestion lists.
func DefaultOptions() Options {
	return Options{Limit: 5, MinScore: 0.6}
}

// minQueryLen is a hard floor: shorter queries produce only noise.
const minQueryLen = 2

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// score applies the strict-priority tier: exact, prefix, substring, then
// normalized Levenshtein similarity over the full strings.
func score(normalizedQuery, normalizedCandidate string) (float64, Reason) {
	switch {
	case normalizedQuery == "" || normalizedCandidate == "":
		return 0, ReasonFuzzy
	case normalizedQuery == normalizedCandidate:
		return 1, ReasonExact
	case strings.HasPrefix(normalizedCandidate, normalizedQuery):
		return 0.95, ReasonPrefix
	case strings.Contains(normalizedCandidate, normalizedQuery):
		return 0.85, ReasonIncludes
	}

	// matchr counts edits in runes, so the denominator must too.
	distance := matchr.Levenshtein(normalizedQuery, normalizedCandidate)
	maxLen := utf8.RuneCountInString(normalizedQuery)
	if n := utf8.RuneCountInString(normalizedCandidate); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0, ReasonFuzzy
	}
	return 1 - float64(distance)/float64(maxLen), ReasonFuzzy
}

// Matches scores candidates against query and returns survivors ordered by
// descending score, input order on ties, truncated to opts.Limit.
//
// Candidates are deduplicated by normalized name, first occurrence winning.
func Matches(query string, candidates []Candidate, opts Options) []Match {
	if opts.Limit <= 0 {
		opts.Limit = DefaultOptions().Limit
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultOptions().MinScore
	}

	normalizedQuery := normalize(query)
	if utf8.RuneCountInString(normalizedQuery) < minQueryLen {
		return nil
	}

	seen := map[string]struct{}{}
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		normalizedName := normalize(candidate.Name)
		if normalizedName == "" {
			continue
		}
		if _, dup := seen[normalizedName]; dup {
			continue
		}
		seen[normalizedName] = struct{}{}

		s, reason := score(normalizedQuery, normalizedName)
		if s < opts.MinScore {
			continue
		}
		matches = append(matches, Match{Candidate: candidate, Score: s, Reason: reason})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

// Best returns the single highest-scoring match at or above minScore, or nil.
// Callers suppress a best match that exactly equals the query themselves.
func Best(query string, candidates []Candidate, minScore float64) *Match {
	if minScore <= 0 {
		minScore = 0.75
	}
	matches := Matches(query, candidates, Options{Limit: 1, MinScore: minScore})
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}
