package ats

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

type section int

const (
	sectionNone section = iota
	sectionHard
	sectionSoft
)

var (
	bulletRegex = regexp.MustCompile(`^\s*(?:#{1,6}\s*|[-*•●▪◦·]\s*|\d{1,2}[.)]\s+)+`)

	hardHeadingRegex    = regexp.MustCompile(`(?i)^(?:required|requirements|qualifications|(?:required|minimum|basic|essential|key)\s+(?:qualifications|requirements|skills)|must[\s-]haves?|must\s+have|what\s+you(?:'ll|\s+will)?\s+need|what\s+we(?:'re|\s+are)\s+looking\s+for|who\s+you\s+are)$`)
	softHeadingRegex    = regexp.MustCompile(`(?i)^(?:nice[\s-]to[\s-]haves?|nice\s+to\s+have|preferred|preferred\s+(?:qualifications|skills|experience)|bonus|bonus\s+(?:points|skills)|pluses|good\s+to\s+have|desired\s+(?:qualifications|skills))$`)
	neutralHeadingRegex = regexp.MustCompile(`(?i)^(?:responsibilities|key\s+responsibilities|what\s+you(?:'ll|\s+will)\s+do|about(?:\s+[\w']+){0,3}|benefits|perks|the\s+role|role|overview|summary|who\s+we\s+are|compensation|location|how\s+to\s+apply)$`)

	hardSignalRegex = regexp.MustCompile(`(?i)\b(?:must|required|requires|mandatory|at\s+least|minimum\s+of)\b|\b\d+\s*\+\s*(?:years|yrs)\b|\b\d+\s+or\s+more\s+years\b`)
	softSignalRegex = regexp.MustCompile(`(?i)\b(?:nice\s+to\s+have|preferred|bonus|plus|ideally|familiarity|desirable)\b`)

	clauseSplitRegex = regexp.MustCompile(`[;|]`)
)

// ParseJdRequirements classifies job description text into hard and soft requirements and
// extracts tool/technology keywords. Output lists preserve first-seen order without duplicates.
func ParseJdRequirements(jobDescription string) types.ParsedJdRequirements {
	var hard, soft []string
	classified := map[string]bool{}

	current := sectionNone
	for _, rawLine := range strings.Split(jobDescription, "\n") {
		line := strings.TrimSpace(bulletRegex.ReplaceAllString(rawLine, ""))
		if line == "" {
			continue
		}

		if kind, rest, ok := classifyHeading(line); ok {
			current = kind
			line = rest
			if line == "" {
				continue
			}
		}

		if current != sectionNone {
			classified[dedupeKey(strings.TrimRight(line, ".,"))] = true
		}
		switch current {
		case sectionHard:
			for _, c := range splitClauses(line) {
				hard = append(hard, c)
				classified[dedupeKey(c)] = true
			}
		case sectionSoft:
			for _, c := range splitClauses(line) {
				soft = append(soft, c)
				classified[dedupeKey(c)] = true
			}
		}
	}

	// Sentence-level pass for unstructured postings without headings.
	for _, sentence := range splitSentences(jobDescription) {
		if _, _, ok := classifyHeading(sentence); ok {
			continue
		}
		if coveredBySection(sentence, classified) {
			continue
		}
		isHard := hardSignalRegex.MatchString(sentence)
		isSoft := softSignalRegex.MatchString(sentence)
		switch {
		case isHard && !isSoft:
			hard = append(hard, sentence)
		case isSoft && !isHard:
			soft = append(soft, sentence)
		}
	}

	return types.ParsedJdRequirements{
		HardRequirements:  nonNil(dedupe(hard)),
		SoftRequirements:  nonNil(dedupe(soft)),
		ToolsTechKeywords: nonNil(ExtractToolKeywords(jobDescription)),
	}
}

// coveredBySection reports whether a sentence was already captured as (part of) a section clause.
func coveredBySection(sentence string, classified map[string]bool) bool {
	key := dedupeKey(sentence)
	if classified[key] {
		return true
	}
	for clause := range classified {
		if strings.Contains(clause, key) {
			return true
		}
	}
	return false
}

// classifyHeading detects a section heading. A heading is either the whole line or the text
// before the first colon; anything after the colon is returned as inline content.
func classifyHeading(line string) (section, string, bool) {
	head, rest := line, ""
	if idx := strings.Index(line, ":"); idx >= 0 {
		head = line[:idx]
		rest = strings.TrimSpace(line[idx+1:])
	}
	head = strings.TrimSpace(strings.Trim(head, "*_#"))

	switch {
	case hardHeadingRegex.MatchString(head):
		return sectionHard, rest, true
	case softHeadingRegex.MatchString(head):
		return sectionSoft, rest, true
	case neutralHeadingRegex.MatchString(head):
		return sectionNone, rest, true
	case rest == "" && strings.HasSuffix(line, ":") && len(strings.Fields(head)) <= 6:
		// any other short "Heading:" line closes the current section
		return sectionNone, "", true
	}
	return sectionNone, "", false
}

// splitClauses splits a requirement line on ; and | into trimmed clauses.
func splitClauses(line string) []string {
	var clauses []string
	for _, part := range clauseSplitRegex.Split(line, -1) {
		part = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(part), ".,"))
		if part != "" {
			clauses = append(clauses, part)
		}
	}
	return clauses
}

// splitSentences breaks text into bullet-stripped sentences on line breaks and . ! ? boundaries.
func splitSentences(text string) []string {
	var sentences []string
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(bulletRegex.ReplaceAllString(rawLine, ""))
		start := 0
		for i := 0; i < len(line); i++ {
			if !isSentenceEnd(line[i]) {
				continue
			}
			if i+1 == len(line) || line[i+1] == ' ' {
				appendSentence(&sentences, line[start:i])
				start = i + 1
			}
		}
		appendSentence(&sentences, line[start:])
	}
	return sentences
}

func appendSentence(out *[]string, s string) {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".,;"))
	if s != "" {
		*out = append(*out, s)
	}
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
