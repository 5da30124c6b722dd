package narration

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNoJSON is returned when a reply contains no brace-delimited object.
var ErrNoJSON = errors.New("narration: no JSON object in reply")

// objectPattern spans from the first '{' to the last '}' across lines.
var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON decodes the outermost JSON object embedded in text into v.
// Models wrap replies in prose or code fences often enough that the reply
// cannot be decoded whole.
//
// Postcondition: returns ErrNoJSON when text has no object, or a wrapped
// decode error when the object is malformed.
func ExtractJSON(text string, v any) error {
	raw := objectPattern.FindString(text)
	if raw == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding reply object: %w", err)
	}
	return nil
}
