package privacy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

var placeholderRegex = regexp.MustCompile(`\[PII_[A-Z_]+?_\d+\]`)

// Redactor assigns one stable placeholder per unique (type, normalized value) pair.
// A Redactor belongs to a single run and is not safe for concurrent use.
type Redactor struct {
	entries []types.PiiRedactionEntry
	byKey   map[string]int
	counts  map[types.PiiType]int
}

// NewRedactor creates an empty Redactor.
func NewRedactor() *Redactor {
	return &Redactor{
		byKey:  map[string]int{},
		counts: map[types.PiiType]int{},
	}
}

// NewRedactorFromEntries seeds a Redactor with existing entries so their placeholders are reused.
func NewRedactorFromEntries(entries []types.PiiRedactionEntry) *Redactor {
	r := NewRedactor()
	for _, e := range entries {
		key := entryKey(e.Type, e.Original)
		if _, ok := r.byKey[key]; ok {
			continue
		}
		r.byKey[key] = len(r.entries)
		r.entries = append(r.entries, e)
		r.counts[e.Type]++
	}
	return r
}

func entryKey(t types.PiiType, value string) string {
	return string(t) + "|" + NormalizeValue(t, value)
}

// placeholderFor returns the placeholder for a value, creating an entry on first sight.
func (r *Redactor) placeholderFor(t types.PiiType, value string) string {
	key := entryKey(t, value)
	if idx, ok := r.byKey[key]; ok {
		return r.entries[idx].Placeholder
	}
	r.counts[t]++
	entry := types.PiiRedactionEntry{
		Placeholder: fmt.Sprintf("[PII_%s_%d]", t, r.counts[t]),
		Original:    value,
		Type:        t,
	}
	r.byKey[key] = len(r.entries)
	r.entries = append(r.entries, entry)
	return entry.Placeholder
}

// Redact replaces every detected PII span in text with its placeholder.
func (r *Redactor) Redact(text string) string {
	detections := Detect(text)
	if len(detections) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, d := range detections {
		b.WriteString(text[last:d.Start])
		b.WriteString(r.placeholderFor(d.Type, d.Value))
		last = d.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// Entries returns a copy of the entries created so far, in creation order.
func (r *Redactor) Entries() []types.PiiRedactionEntry {
	return append([]types.PiiRedactionEntry{}, r.entries...)
}

// PrepareResult is the outcome of preparing an input for external calls.
type PrepareResult struct {
	Sanitized types.ApplicationInput    `json:"sanitized"`
	Entries   []types.PiiRedactionEntry `json:"entries"`
	Preview   []types.PiiPreviewItem    `json:"preview"`
}

// Prepare derives a sanitized copy of the input. When privacy mode is off it is a no-op copy.
// When on, every free-text field and vault entry is redacted and the entries used are returned
// along with a masked preview safe to show or log.
func Prepare(in types.ApplicationInput) PrepareResult {
	if !in.PrivacyMode {
		return PrepareResult{
			Sanitized: in.Clone(),
			Entries:   []types.PiiRedactionEntry{},
			Preview:   []types.PiiPreviewItem{},
		}
	}
	r := NewRedactor()
	sanitized := RedactInput(r, in)
	entries := r.Entries()
	return PrepareResult{Sanitized: sanitized, Entries: entries, Preview: BuildPreview(entries)}
}

// RedactInput applies a redactor to every free-text field, portfolio link and vault entry of a copy of in.
func RedactInput(r *Redactor, in types.ApplicationInput) types.ApplicationInput {
	out := in.Clone()
	out.JobDescription = r.Redact(in.JobDescription)
	out.ResumeContent = r.Redact(in.ResumeContent)
	out.CoverLetterContent = r.Redact(in.CoverLetterContent)
	out.CompanyInfo = r.Redact(in.CompanyInfo)
	out.AdditionalContext = r.Redact(in.AdditionalContext)
	for i, link := range in.PortfolioLinks {
		out.PortfolioLinks[i] = r.Redact(link)
	}
	out.MetricsVault = in.MetricsVault.WithEntries(func(_, text string) string {
		return r.Redact(text)
	})
	return out
}

// CollectEntries detects the PII present in an input regardless of privacy mode.
// The result is the set of personal data the candidate supplied and is therefore allowed to appear.
func CollectEntries(in types.ApplicationInput) []types.PiiRedactionEntry {
	r := NewRedactor()
	RedactInput(r, in)
	return r.Entries()
}

// BuildPreview masks each entry's original value.
func BuildPreview(entries []types.PiiRedactionEntry) []types.PiiPreviewItem {
	preview := make([]types.PiiPreviewItem, 0, len(entries))
	for _, e := range entries {
		preview = append(preview, types.PiiPreviewItem{
			Type:        e.Type,
			Placeholder: e.Placeholder,
			Masked:      Mask(e.Type, e.Original),
		})
	}
	return preview
}

// Mask hides most of a PII value. Emails keep their first character and domain;
// everything else keeps only its last two characters.
func Mask(t types.PiiType, value string) string {
	if t == types.PiiEmail {
		if at := strings.Index(value, "@"); at > 0 {
			return value[:1] + "***" + value[at:]
		}
	}
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= 2 {
		return "***"
	}
	return "***" + string(runes[len(runes)-2:])
}

// byPlaceholderLength orders entries so [PII_EMAIL_10] is handled before [PII_EMAIL_1].
func byPlaceholderLength(entries []types.PiiRedactionEntry) []types.PiiRedactionEntry {
	sorted := append([]types.PiiRedactionEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Placeholder) > len(sorted[j].Placeholder)
	})
	return sorted
}

// Reinsert substitutes every known placeholder with its original value.
// Unused entries are harmless and applying it twice changes nothing.
func Reinsert(text string, entries []types.PiiRedactionEntry) string {
	for _, e := range byPlaceholderLength(entries) {
		text = strings.ReplaceAll(text, e.Placeholder, e.Original)
	}
	return text
}

// Sanitize replaces literal occurrences of known original values with their placeholders.
func Sanitize(text string, entries []types.PiiRedactionEntry) string {
	sorted := append([]types.PiiRedactionEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Original) > len(sorted[j].Original)
	})
	for _, e := range sorted {
		if e.Original != "" {
			text = strings.ReplaceAll(text, e.Original, e.Placeholder)
		}
	}
	return text
}

// Finding is a PII value in generated or outbound text that is not in the allowed set.
type Finding struct {
	Type  types.PiiType `json:"type"`
	Value string        `json:"value"`
}

// String renders a finding without repeating the raw value.
func (f Finding) String() string {
	return fmt.Sprintf("%s (%s)", f.Type, Mask(f.Type, f.Value))
}

// FindUnauthorizedPii re-runs detection on text and reports every value whose
// (type, normalized value) pair is not among the allowed entries.
func FindUnauthorizedPii(text string, allowed []types.PiiRedactionEntry) []Finding {
	allowedKeys := make(map[string]bool, len(allowed))
	for _, e := range allowed {
		allowedKeys[entryKey(e.Type, e.Original)] = true
	}

	var findings []Finding
	seen := map[string]bool{}
	for _, d := range Detect(text) {
		key := entryKey(d.Type, d.Value)
		if allowedKeys[key] || seen[key] {
			continue
		}
		seen[key] = true
		findings = append(findings, Finding{Type: d.Type, Value: d.Value})
	}
	return findings
}

// FindUnresolvedPiiPlaceholders returns placeholder-shaped tokens in text that match no known entry,
// in order of first appearance.
func FindUnresolvedPiiPlaceholders(text string, entries []types.PiiRedactionEntry) []string {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Placeholder] = true
	}

	var unresolved []string
	seen := map[string]bool{}
	for _, token := range placeholderRegex.FindAllString(text, -1) {
		if known[token] || seen[token] {
			continue
		}
		seen[token] = true
		unresolved = append(unresolved, token)
	}
	return unresolved
}
