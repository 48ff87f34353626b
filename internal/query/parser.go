// Package query turns free-text search input into a normalized token set and
// an optional budget ceiling.
package query

import (
	"strconv"
	"strings"
	"unicode"
)

// Budget extraction treats short digit runs as sizes or model numbers and
// small values as noise rather than a price ceiling.
const (
	minBudgetDigits = 3
	budgetNoiseMax  = 500
)

// Query is the parsed form of a free-text search.
type Query struct {
	Tokens []string
	Budget *int
}

// HasTokens reports whether any searchable tokens were extracted.
func (q Query) HasTokens() bool {
	return len(q.Tokens) > 0
}

// Parse extracts tokens and a budget ceiling from raw search text.
//
// Budget: every run of digits (separators like "20,000" allowed) with at
// least three digits is a candidate after stripping non-digit characters;
// candidates <= 500 are discarded as noise, and the minimum of the survivors
// wins. When a user types two numbers ("under 20000 EMI 2000") the smaller
// one is most likely the cap they care about.
//
// Tokens: lower-cased, split on runs of non-alphanumeric characters; pure
// digit runs are dropped because budget extraction already claims them. Short
// tokens and non-Latin scripts are kept.
func Parse(raw string) Query {
	return Query{
		Tokens: tokenize(raw),
		Budget: extractBudget(raw),
	}
}

// stopwords are budget filler words; they accompany a price ceiling and would
// otherwise poison the conjunctive token match.
var stopwords = map[string]struct{}{
	"under":  {},
	"below":  {},
	"upto":   {},
	"within": {},
	"than":   {},
	"less":   {},
	"rs":     {},
	"inr":    {},
	"emi":    {},
}

func tokenize(raw string) []string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if isDigits(field) {
			continue
		}
		if _, ok := stopwords[field]; ok {
			continue
		}
		tokens = append(tokens, field)
	}

	return tokens
}

func extractBudget(raw string) *int {
	var budget *int

	for _, run := range digitRuns(raw) {
		if len(run) < minBudgetDigits {
			continue
		}

		value, err := strconv.Atoi(run)
		if err != nil || value <= budgetNoiseMax {
			continue
		}

		if budget == nil || value < *budget {
			v := value
			budget = &v
		}
	}

	return budget
}

// digitRuns returns the digit content of every numeric run in text. A run may
// contain thousands separators ("20,000"); they are stripped so only digits
// remain.
func digitRuns(text string) []string {
	var runs []string
	var current strings.Builder
	inRun := false

	flush := func() {
		if current.Len() > 0 {
			runs = append(runs, current.String())
			current.Reset()
		}
		inRun = false
	}

	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			current.WriteRune(r)
			inRun = true
		case inRun && (r == ',' || r == '.'):
			// separator inside a numeric run, stripped
		default:
			flush()
		}
	}
	flush()

	return runs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
