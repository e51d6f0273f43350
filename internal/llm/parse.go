package llm

import (
	"encoding/json"
	"fmt"
)

// ParseOutcome tags the result of decoding a generator response.
type ParseOutcome int

const (
	// ParsedOK means the response decoded to a JSON object that passed validation.
	ParsedOK ParseOutcome = iota
	// ParsedInvalidJSON means the text could not be decoded.
	ParsedInvalidJSON
	// ParsedSchemaMismatch means the JSON decoded but had the wrong shape.
	ParsedSchemaMismatch
)

func (o ParseOutcome) String() string {
	switch o {
	case ParsedOK:
		return "ok"
	case ParsedInvalidJSON:
		return "parse_error"
	case ParsedSchemaMismatch:
		return "schema_error"
	default:
		return fmt.Sprintf("ParseOutcome(%d)", int(o))
	}
}

// Parsed is the tagged result of decoding a response: exactly one of Object (OK) or Err is set.
// Err is a *ParseError for ParsedInvalidJSON and a *SchemaError for ParsedSchemaMismatch.
type Parsed struct {
	Outcome ParseOutcome
	Object  map[string]any
	JSON    []byte
	Err     error
}

// Result returns the decoded object or the tagged error.
func (p Parsed) Result() (map[string]any, error) {
	if p.Outcome == ParsedOK {
		return p.Object, nil
	}
	return nil, p.Err
}

// ParseResponse decodes response text into a JSON object, tolerating a fenced code block.
// validate, when set, checks the cleaned document (for example against a JSON Schema).
func ParseResponse(text string, validate func(document []byte) error) Parsed {
	cleaned := []byte(CleanJSONBlock(text))

	var decoded any
	if err := json.Unmarshal(cleaned, &decoded); err != nil {
		return Parsed{
			Outcome: ParsedInvalidJSON,
			Err:     &ParseError{Message: "response is not valid JSON", Raw: text, Cause: err},
		}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return Parsed{
			Outcome: ParsedSchemaMismatch,
			Err:     &SchemaError{Message: fmt.Sprintf("expected a JSON object, got %T", decoded)},
		}
	}

	if validate != nil {
		if err := validate(cleaned); err != nil {
			return Parsed{
				Outcome: ParsedSchemaMismatch,
				Err:     &SchemaError{Message: "response failed validation", Cause: err},
			}
		}
	}

	return Parsed{Outcome: ParsedOK, Object: obj, JSON: cleaned}
}
