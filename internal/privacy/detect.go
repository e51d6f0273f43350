// Package privacy detects personal data, swaps it for stable placeholders before any external
// call, restores it afterwards, and flags leaked or invented personal data in generated text.
package privacy

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// Detection is one PII span found in a text.
type Detection struct {
	Type  types.PiiType `json:"type"`
	Value string        `json:"value"`
	Start int           `json:"start"`
	End   int           `json:"end"`
}

const monthNames = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	birthDateRegex = regexp.MustCompile(`(?i)\b(?:date\s+of\s+birth|birth\s*date|birthday|d\.?o\.?b\.?|born(?:\s+on)?)\s*[:\-]?\s*(` +
		`\d{4}-\d{1,2}-\d{1,2}` +
		`|\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4}` +
		`|` + monthNames + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}` +
		`|\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthNames + `\.?,?\s+\d{4})`)

	personalIDRegex = regexp.MustCompile(`(?i)\b(?:ssn|social\s+security(?:\s+(?:number|no\.?|#))?|passport(?:\s+(?:number|no\.?|#))?|national\s+id(?:entification)?(?:\s+(?:number|no\.?|#))?|id\s+(?:number|no\.?|#)|tax\s+id(?:\s+(?:number|no\.?))?|driver'?s?\s+licen[cs]e(?:\s+(?:number|no\.?|#))?|dni|nie|nif|curp)\s*[:#\-]?\s*([A-Za-z0-9][A-Za-z0-9\-]{3,20})`)

	phoneCandidateRegex = regexp.MustCompile(`(?:\+\d{1,3}[ \t.\-]?)?(?:\(\d{1,4}\)[ \t.\-]?)?\d[\d \t.\-]{6,}\d`)
	yearRangeRegex      = regexp.MustCompile(`^\d{4}\s*[\-–]\s*\d{4}$`)
	yearListRegex       = regexp.MustCompile(`^(?:19|20)\d{2}(?:[ \t]+(?:19|20)\d{2})+$`)
	numericDateRegex    = regexp.MustCompile(`^(?:\d{4}[./\-]\d{1,2}[./\-]\d{1,2}|\d{1,2}[./\-]\d{1,2}[./\-]\d{4})$`)
	thousandsRegex      = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3}){2,}$`)
	dottedQuadRegex     = regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`)

	streetAddressRegex = regexp.MustCompile(`\b\d{1,6}\s+(?:(?:[A-Z][A-Za-z0-9.'\-]*|\d{1,4}(?:st|nd|rd|th))\s+){1,4}(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl|Terrace|Circle|Parkway|Pkwy|Highway|Hwy|Calle|Avenida)\b\.?(?:,?\s+(?:Apt|Suite|Unit|#)\.?\s*[A-Za-z0-9\-]+)?`)
)

type span struct{ start, end int }

func overlaps(taken []span, s span) bool {
	for _, t := range taken {
		if s.start < t.end && t.start < s.end {
			return true
		}
	}
	return false
}

// Detect finds PII in text. Detectors run in a fixed order (email, labeled birth date,
// labeled personal id, phone, street address) and a later detector never claims a span
// an earlier one already took. Results are sorted by position.
func Detect(text string) []Detection {
	var found []Detection
	var taken []span

	add := func(t types.PiiType, start, end int) {
		s := span{start, end}
		if start >= end || overlaps(taken, s) {
			return
		}
		taken = append(taken, s)
		found = append(found, Detection{Type: t, Value: text[start:end], Start: start, End: end})
	}

	for _, loc := range emailRegex.FindAllStringIndex(text, -1) {
		add(types.PiiEmail, loc[0], loc[1])
	}
	for _, loc := range birthDateRegex.FindAllStringSubmatchIndex(text, -1) {
		add(types.PiiBirthDate, loc[2], loc[3])
	}
	for _, loc := range personalIDRegex.FindAllStringSubmatchIndex(text, -1) {
		if strings.IndexFunc(text[loc[2]:loc[3]], unicode.IsDigit) >= 0 {
			add(types.PiiPersonalID, loc[2], loc[3])
		}
	}
	for _, loc := range phoneCandidateRegex.FindAllStringIndex(text, -1) {
		start, end := trimPhone(text, loc[0], phoneEnd(text, loc[0], loc[1]))
		if isPhone(text[start:end]) {
			add(types.PiiPhone, start, end)
		}
	}
	for _, loc := range streetAddressRegex.FindAllStringIndex(text, -1) {
		add(types.PiiStreetAddress, loc[0], loc[1])
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Start < found[j].Start })
	return found
}

// phoneEnd stops a candidate at the first blank once it holds a complete ten-digit number,
// so a figure or house number written after a phone is not absorbed into it.
func phoneEnd(text string, start, end int) int {
	digits := 0
	for i := start; i < end; i++ {
		switch c := text[i]; {
		case c >= '0' && c <= '9':
			digits++
		case (c == ' ' || c == '\t') && digits >= 10:
			return i
		}
	}
	return end
}

// trimPhone drops trailing separators the candidate regex may have swallowed.
func trimPhone(text string, start, end int) (int, int) {
	for end > start && strings.ContainsRune(" \t.-", rune(text[end-1])) {
		end--
	}
	return start, end
}

func isPhone(candidate string) bool {
	digits := countDigits(candidate)
	if digits < 8 || digits > 15 {
		return false
	}
	trimmed := strings.TrimSpace(candidate)
	for _, re := range []*regexp.Regexp{yearRangeRegex, yearListRegex, numericDateRegex, thousandsRegex, dottedQuadRegex} {
		if re.MatchString(trimmed) {
			return false
		}
	}
	return true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// NormalizeValue returns the identity of a PII value for its type, so formatting variants
// of the same email or phone number share one placeholder.
func NormalizeValue(t types.PiiType, value string) string {
	switch t {
	case types.PiiEmail:
		return strings.ToLower(strings.TrimSpace(value))
	case types.PiiPhone:
		var b strings.Builder
		for _, r := range value {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		return b.String()
	case types.PiiPersonalID:
		var b strings.Builder
		for _, r := range value {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
			}
		}
		return b.String()
	default:
		return strings.ToLower(strings.Join(strings.Fields(value), " "))
	}
}

// MaskDetected replaces every detected PII span with a single space. Numeric checks run on the
// masked text so phone digits or address numbers are not mistaken for claims.
func MaskDetected(text string) string {
	detections := Detect(text)
	for i := len(detections) - 1; i >= 0; i-- {
		d := detections[i]
		text = text[:d.Start] + " " + text[d.End:]
	}
	return text
}
