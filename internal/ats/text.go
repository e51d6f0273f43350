// Package ats approximates applicant tracking system matching: it classifies job description
// requirements, extracts tool keywords, and scores résumé coverage with fixed heuristics.
package ats

import (
	"strings"
	"unicode"
)

// stopWords are dropped when computing significant tokens.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true, "from": true,
	"our": true, "your": true, "their": true, "they": true, "of": true, "in": true,
	"on": true, "to": true, "or": true, "as": true, "at": true, "by": true, "be": true,
	"is": true, "it": true, "we": true, "us": true, "about": true, "which": true,
	"can": true, "not": true, "but": true, "all": true, "also": true, "more": true,
	"than": true, "into": true, "has": true, "its": true, "each": true, "using": true,
	"use": true, "such": true, "able": true, "ability": true, "strong": true,
	"good": true, "solid": true, "knowledge": true, "proficiency": true, "proficient": true,
	"experience": true, "experienced": true, "years": true, "year": true, "yrs": true,
	"skills": true, "skill": true, "understanding": true, "working": true, "work": true,
	"plus": true, "least": true, "must": true, "required": true, "preferred": true,
	"including": true, "etc": true,
}

// tokenize lowercases text and splits it into word tokens.
// Characters + # . / are kept inside tokens so c++, c#, node.js survive; trailing dots are dropped
// and slash-joined tokens such as ci/cd also contribute their parts.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		w := strings.Trim(word.String(), "./")
		word.Reset()
		if w == "" {
			return
		}
		tokens = append(tokens, w)
		if strings.Contains(w, "/") {
			for _, part := range strings.Split(w, "/") {
				if part != "" {
					tokens = append(tokens, part)
				}
			}
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '/' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// normalizePhrase returns a token-boundary padded form used for whole-word containment checks.
func normalizePhrase(text string) string {
	return " " + strings.Join(tokenize(text), " ") + " "
}

// containsPhrase reports whether needle appears in haystack on token boundaries.
// Both arguments must come from normalizePhrase.
func containsPhrase(haystack, needle string) bool {
	if strings.TrimSpace(needle) == "" {
		return false
	}
	return strings.Contains(haystack, needle)
}

// significantTokens returns tokens that carry meaning: no stop words, no bare numbers.
// If every token is insignificant, all non-numeric tokens are returned instead.
func significantTokens(text string) []string {
	all := tokenize(text)
	var sig, fallback []string
	seen := map[string]bool{}
	for _, tok := range all {
		if seen[tok] || isNumeric(tok) {
			continue
		}
		seen[tok] = true
		fallback = append(fallback, tok)
		if !stopWords[tok] {
			sig = append(sig, tok)
		}
	}
	if len(sig) == 0 {
		return fallback
	}
	return sig
}

func isNumeric(tok string) bool {
	tok = strings.TrimRight(tok, "+%")
	if tok == "" {
		return true
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

// dedupeKey is the equality key for requirement and keyword lists: case-insensitive, whitespace-normalized.
func dedupeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// dedupe removes duplicates by dedupeKey while keeping first-seen order. Blank items are dropped.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := dedupeKey(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
