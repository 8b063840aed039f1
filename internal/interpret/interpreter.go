// Package interpret turns a model reply into structured JSON, or reports why
// it could not.
package interpret

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spherical/vision-extractor/internal/domain"
)

// Result is the outcome of interpreting one reply. When OK is false, Raw holds
// the reply verbatim and Err describes the decode failure.
type Result struct {
	OK    bool
	Value interface{}
	Raw   string
	Err   error
}

// Pretty renders Value as JSON indented by two spaces. It returns "" for a
// failed result.
func (r *Result) Pretty() string {
	if r == nil || !r.OK {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Value); err != nil {
		// Decoded values always re-encode; keep the raw text just in case.
		return r.Raw
	}
	return strings.TrimRight(buf.String(), "\n")
}

type options struct {
	stripFences bool
}

// Option configures Interpret.
type Option func(*options)

// WithCodeFenceStripping removes one surrounding markdown code fence
// (```json ... ``` or ``` ... ```) before decoding.
func WithCodeFenceStripping() Option {
	return func(o *options) { o.stripFences = true }
}

// Interpret decodes reply as exactly one JSON value. It never panics and
// never returns a Go error; decode problems are reported on the Result.
func Interpret(reply string, opts ...Option) *Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	text := reply
	if o.stripFences {
		text = stripCodeFence(text)
	}

	value, err := decode(text)
	if err != nil {
		return &Result{
			Raw: reply,
			Err: domain.ParseFailure("Model returned invalid JSON", err),
		}
	}
	return &Result{OK: true, Value: value, Raw: reply}
}

func decode(text string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty reply")
		}
		return nil, err
	}

	// Anything other than whitespace after the first value is rejected.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return value, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}
	body := strings.TrimSuffix(trimmed[3:], "```")
	// Drop the info string (e.g. "json") on the opening line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		return text
	}
	return body
}
