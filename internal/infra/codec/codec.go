// Package codec decodes recipe feed payloads.
//
// Two payload shapes are accepted: an object with a "recipes" array, and a
// bare top-level array of the same records. Wire names are mapped through a
// fixed table (see wireFields) and must match exactly.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vietddude/recipefetch/internal/core/domain"
)

var (
	// ErrMalformedRecord is returned when a record lacks a required field.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrMalformedPayload is returned when the payload is not a recognizable feed document.
	ErrMalformedPayload = errors.New("malformed payload")
)

// DecodeError describes why a payload could not be decoded.
type DecodeError struct {
	Index int    // record index, -1 for payload-level failures
	Field string // missing or mistyped field, if known
	Err   error  // ErrMalformedRecord or ErrMalformedPayload
	Cause error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Index >= 0 && e.Field != "":
		return fmt.Sprintf("%v: record %d: field %q", e.Err, e.Index, e.Field)
	case e.Field != "":
		return fmt.Sprintf("%v: field %q: %v", e.Err, e.Field, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Err, e.Cause)
	default:
		return e.Err.Error()
	}
}

func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// wireRecord is one feed record keyed by its exact wire names. encoding/json
// matches struct tags case-insensitively, so records are looked up by hand.
type wireRecord map[string]json.RawMessage

// wireField maps one wire name onto domain.Recipe.
type wireField struct {
	name     string
	required bool
	assign   func(r *domain.Recipe, v *string)
}

// wireFields is the static field-name table between the feed and domain.Recipe.
var wireFields = []wireField{
	{"uuid", true, func(r *domain.Recipe, v *string) { r.ID = *v }},
	{"cuisine", true, func(r *domain.Recipe, v *string) { r.Cuisine = *v }},
	{"name", true, func(r *domain.Recipe, v *string) { r.Name = *v }},
	{"photo_url_large", false, func(r *domain.Recipe, v *string) { r.PhotoURLLarge = v }},
	{"photo_url_small", false, func(r *domain.Recipe, v *string) { r.PhotoURLSmall = v }},
	{"source_url", false, func(r *domain.Recipe, v *string) { r.SourceURL = v }},
	{"youtube_url", false, func(r *domain.Recipe, v *string) { r.YoutubeURL = v }},
}

const envelopeKey = "recipes"

// Decode converts a feed payload into recipes in payload order.
func Decode(data []byte) (domain.Collection, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, &DecodeError{Index: -1, Err: ErrMalformedPayload, Cause: errors.New("empty body")}
	}

	var body json.RawMessage
	switch trimmed[0] {
	case '[':
		body = trimmed
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, unmarshalError(err)
		}
		raw, ok := env[envelopeKey]
		if !ok || isNull(raw) {
			return nil, &DecodeError{Index: -1, Field: envelopeKey, Err: ErrMalformedPayload, Cause: errors.New("missing")}
		}
		body = raw
	default:
		return nil, &DecodeError{Index: -1, Err: ErrMalformedPayload, Cause: fmt.Errorf("unexpected leading byte %q", trimmed[0])}
	}

	var records []wireRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, unmarshalError(err)
	}

	out := make(domain.Collection, 0, len(records))
	for i, w := range records {
		r, err := w.toDomain(i)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (w wireRecord) toDomain(index int) (domain.Recipe, error) {
	var r domain.Recipe
	for _, f := range wireFields {
		v, err := w.lookup(f.name)
		if err != nil {
			return domain.Recipe{}, &DecodeError{Index: index, Field: f.name, Err: ErrMalformedRecord, Cause: err}
		}
		if v == nil {
			if f.required {
				return domain.Recipe{}, &DecodeError{Index: index, Field: f.name, Err: ErrMalformedRecord}
			}
			continue
		}
		f.assign(&r, v)
	}
	return r, nil
}

// lookup returns the string at the exact key name, or nil when the key is
// absent or null.
func (w wireRecord) lookup(name string) (*string, error) {
	raw, ok := w[name]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func unmarshalError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{Index: -1, Field: typeErr.Field, Err: ErrMalformedRecord, Cause: err}
	}
	return &DecodeError{Index: -1, Err: ErrMalformedPayload, Cause: err}
}
