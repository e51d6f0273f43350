// Package schemas validates stage responses and the final analysis result against embedded JSON Schemas.
package schemas

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// Embedded schema file names.
const (
	AnalysisResultSchema = "analysis_result.schema.json"
	ExtractFactsSchema   = "extract_facts.schema.json"
	ScoreMatchSchema     = "score_match.schema.json"
	RewriteDocsSchema    = "rewrite_docs.schema.json"
)

// MaxEvidenceWords bounds every evidence quote in the final result.
const MaxEvidenceWords = 20

//go:embed *.schema.json
var schemaFS embed.FS

var (
	compiled   = map[string]*gojsonschema.Schema{}
	compiledMu sync.Mutex
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Fields returns the path of every failing field, in report order.
func (ve *ValidationError) Fields() []string {
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// load compiles an embedded schema once and reuses it afterwards.
func load(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema not embedded", Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// ValidateDocument validates raw JSON against a named embedded schema. Every failing field is
// reported, not only the first.
func ValidateDocument(schemaName string, document []byte) error {
	s, err := load(schemaName)
	if err != nil {
		return err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}
	return toValidationError(result.Errors())
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	if result.Valid() {
		return nil
	}
	return toValidationError(result.Errors())
}

func toValidationError(errs []gojsonschema.ResultError) *ValidationError {
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(errs)),
	}
	for _, desc := range errs {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// ValidateAnalysisResultJSON validates a serialized AnalysisResult: the structural schema first,
// then the cross-field rules when the document decodes. All errors are accumulated.
func ValidateAnalysisResultJSON(document []byte) error {
	var fieldErrors []FieldError

	if err := ValidateDocument(AnalysisResultSchema, document); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		fieldErrors = append(fieldErrors, ve.Errors...)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(document, &result); err == nil {
		fieldErrors = append(fieldErrors, crossFieldErrors(result)...)
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return &ValidationError{Errors: fieldErrors}
}

// ValidateAnalysisResult serializes result and validates it.
func ValidateAnalysisResult(result types.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	return ValidateAnalysisResultJSON(data)
}

// crossFieldErrors checks the rules a JSON Schema cannot express.
func crossFieldErrors(result types.AnalysisResult) []FieldError {
	var errs []FieldError

	known := make(map[string]bool, len(result.AnalysisTrace.RetrievalChunkIDs))
	for _, id := range result.AnalysisTrace.RetrievalChunkIDs {
		known[id] = true
	}
	for i, entry := range result.AnalysisTrace.RetrievalTrace {
		if !known[entry.ChunkID] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("analysisTrace.retrievalTrace.%d.chunkId", i),
				Message: fmt.Sprintf("chunk %q is not listed in retrievalChunkIds", entry.ChunkID),
			})
		}
	}

	for i, imp := range result.Improvements {
		if q := imp.Evidence.ResumeQuote; q != nil && WordCount(*q) > MaxEvidenceWords {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("improvements.%d.evidence.resumeQuote", i),
				Message: fmt.Sprintf("evidence exceeds %d words", MaxEvidenceWords),
			})
		}
		if q := imp.Evidence.JdQuote; q != nil && WordCount(*q) > MaxEvidenceWords {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("improvements.%d.evidence.jdQuote", i),
				Message: fmt.Sprintf("evidence exceeds %d words", MaxEvidenceWords),
			})
		}
	}
	return errs
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
