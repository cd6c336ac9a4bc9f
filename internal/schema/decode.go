package schema

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"taskpad-backend/internal/sanitize"
)

// Recover returns the first of raw, sanitized raw, and the JSON fragment
// extracted from sanitized raw that is valid JSON.
func Recover(shape, raw string) (string, error) {
	if gjson.Valid(raw) {
		return raw, nil
	}

	cleaned := sanitize.Text(raw)
	if gjson.Valid(cleaned) {
		return cleaned, nil
	}

	extracted := sanitize.ExtractJSON(cleaned)
	if gjson.Valid(extracted) {
		return extracted, nil
	}

	return "", &ParseError{Shape: shape, Raw: raw, Err: errors.New("no valid JSON after sanitization")}
}

func decode[T any](shape, raw string) (T, error) {
	var out T

	doc, err := Recover(shape, raw)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return out, unmarshalError(shape, raw, err)
	}

	if err := Validate(shape, &out); err != nil {
		return out, err
	}

	return out, nil
}

func unmarshalError(shape, raw string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return violationf(shape, typeErr.Field, "type", typeErr.Value)
	}
	return &ParseError{Shape: shape, Raw: raw, Err: err}
}

// DecodeClassification parses and validates classifier output.
func DecodeClassification(raw string) (Classification, error) {
	w, err := decode[classificationWire](ShapeClassification, raw)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Kind: Kind(w.Kind), Confidence: *w.Confidence}, nil
}

// DecodeTask parses and validates task structuring output.
func DecodeTask(raw string) (StructuredTask, error) {
	w, err := decode[taskWire](ShapeTask, raw)
	if err != nil {
		return StructuredTask{}, err
	}

	task := StructuredTask{Title: w.Title, Content: w.Content, Priority: w.Priority}
	if w.Difficulty != nil {
		d := *w.Difficulty
		if math.Trunc(d) != d {
			return StructuredTask{}, violationf(ShapeTask, "difficulty", "type", d)
		}
		n := int(d)
		task.Difficulty = &n
	}
	return task, nil
}

// DecodeNote parses and validates note structuring output.
func DecodeNote(raw string) (StructuredNote, error) {
	return decode[StructuredNote](ShapeNote, raw)
}

// DecodeDueTime parses and validates due-time extractor output.
func DecodeDueTime(raw string) (DueTimeFields, error) {
	return decode[DueTimeFields](ShapeDueTime, raw)
}

// DecodeStrings parses a JSON array of strings. When the model wraps the
// array in an object, the array stored under key is used instead.
func DecodeStrings(shape, key, raw string) ([]string, error) {
	doc, err := Recover(shape, raw)
	if err != nil {
		return nil, err
	}

	parsed := gjson.Parse(doc)
	if parsed.IsObject() && key != "" {
		field := parsed.Get(key)
		if !field.Exists() {
			return nil, violationf(shape, key, "required", nil)
		}
		doc = field.Raw
	}

	var out []string
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, unmarshalError(shape, raw, err)
	}
	if out == nil {
		return nil, violationf(shape, "", "array", nil)
	}
	return out, nil
}

// ParseDifficulty reads a single integer token in the range 1..5.
func ParseDifficulty(raw string) (int, error) {
	token := strings.TrimSpace(sanitize.Text(raw))
	token = strings.TrimRight(token, ".")

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, &ParseError{Shape: ShapeDifficulty, Raw: raw, Err: err}
	}
	if err := ValidateVar(ShapeDifficulty, "difficulty", n, "min=1,max=5"); err != nil {
		return 0, err
	}
	return n, nil
}
