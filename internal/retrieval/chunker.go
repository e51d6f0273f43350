// Package retrieval splits input fields into overlapping chunks and deterministically selects the most relevant ones.
package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-optimizer/internal/input"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// Config controls chunk boundaries.
type Config struct {
	MaxChars int // window size
	MinSplit int // never backtrack a split closer than this to the window start
	Overlap  int // characters shared between consecutive chunks
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{MaxChars: 900, MinSplit: 220, Overlap: 140}
}

// DefaultLimit is the number of chunks selected when the caller does not specify one.
const DefaultLimit = 8

var sourcePriority = map[string]int{
	types.SourceJobDescription:     5,
	types.SourceResumeContent:      4,
	types.SourceCoverLetterContent: 3,
	types.SourceCompanyInfo:        2,
	types.SourceAdditionalContext:  1,
}

// SourcePriority returns the ranking weight of a source field.
func SourcePriority(source string) int {
	return sourcePriority[source]
}

// BuildChunks splits every non-empty text field of the input into chunks, in field order.
func BuildChunks(in types.ApplicationInput, cfg Config) []types.RetrievalChunk {
	if cfg.MaxChars <= 0 {
		cfg = DefaultConfig()
	}
	var chunks []types.RetrievalChunk
	for _, field := range in.TextFields() {
		chunks = append(chunks, chunkText(field.Source, input.NormalizeText(field.Text), cfg)...)
	}
	return chunks
}

func chunkText(source, text string, cfg Config) []types.RetrievalChunk {
	n := len(text)
	if n == 0 {
		return nil
	}

	var chunks []types.RetrievalChunk
	start, seq := 0, 0
	for start < n {
		end := min(start+cfg.MaxChars, n)
		if end < n {
			end = findSplit(text, start, end, cfg.MinSplit)
		}
		if end <= start {
			// window narrower than the rune at start
			_, size := utf8.DecodeRuneInString(text[start:])
			end = start + size
		}

		chunkBody := text[start:end]
		chunks = append(chunks, types.RetrievalChunk{
			ID:            fmt.Sprintf("%s:%d:%d-%d", source, seq, start, end),
			Source:        source,
			Text:          strings.TrimSpace(chunkBody),
			Start:         start,
			End:           end,
			TokenEstimate: input.EstimateTokens(chunkBody),
		})
		seq++

		if end >= n {
			break
		}
		next := end - cfg.Overlap
		if next <= start {
			next = end
		}
		for next < n && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return chunks
}

// findSplit picks the split point for a window [start, end) that would cut content.
// Preference: last sentence boundary, then newline, then whitespace, never before start+minSplit.
func findSplit(text string, start, end, minSplit int) int {
	floor := start + minSplit
	if floor >= end {
		return runeBoundary(text, end)
	}

	for i := end; i > floor; i-- {
		if i < len(text) && text[i] == ' ' && isSentenceEnd(text[i-1]) {
			return i
		}
	}
	if idx := strings.LastIndexByte(text[floor:end], '\n'); idx >= 0 && floor+idx > start {
		return floor + idx
	}
	for i := end; i > floor; i-- {
		if i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			return i
		}
	}
	return runeBoundary(text, end)
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// runeBoundary moves a hard cut back so it never splits a multi-byte character.
func runeBoundary(text string, end int) int {
	for end > 0 && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// Score ranks a chunk: source priority plus a length bonus capped at 1.
func Score(c types.RetrievalChunk) float64 {
	bonus := float64(c.TokenEstimate) / 200
	if bonus > 1 {
		bonus = 1
	}
	return float64(SourcePriority(c.Source)) + bonus
}

// Rank orders chunks by descending score, breaking ties by ascending id.
// The input slice is not modified.
func Rank(chunks []types.RetrievalChunk) []types.RetrievalChunk {
	ranked := append([]types.RetrievalChunk(nil), chunks...)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := Score(ranked[i]), Score(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// SelectChunks chunks the input and returns the top limit chunks with a reason per chunk.
func SelectChunks(in types.ApplicationInput, limit int) types.RetrievalSelection {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ranked := Rank(BuildChunks(in, DefaultConfig()))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	sel := types.RetrievalSelection{
		Chunks: ranked,
		Trace:  make([]types.RetrievalTraceEntry, 0, len(ranked)),
	}
	for _, c := range ranked {
		sel.Trace = append(sel.Trace, types.RetrievalTraceEntry{
			ChunkID: c.ID,
			Reason:  fmt.Sprintf("source=%s priority=%d tokens=%d", c.Source, SourcePriority(c.Source), c.TokenEstimate),
		})
	}
	return sel
}

// SelectChunkIDs returns only the ordered ids of the selected chunks.
func SelectChunkIDs(in types.ApplicationInput, limit int) []string {
	return SelectChunks(in, limit).ChunkIDs()
}
