package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
)

// ErrorResponse is the error envelope for JSON output.
type ErrorResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Options controls output behavior.
type Options struct {
	Out    io.Writer
	ErrOut io.Writer
	JSON   bool
	JQ     string
}

// Writer handles command output. Success payloads are either rendered by the
// command as plain text or handed to JSON; errors always funnel through Err.
type Writer struct {
	opts Options
}

// New creates a new output writer.
func New(opts Options) *Writer {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	return &Writer{opts: opts}
}

// JSONEnabled reports whether --json was requested.
func (w *Writer) JSONEnabled() bool {
	return w.opts.JSON
}

// JSON pretty-prints v, applying the --jq filter when one is set.
func (w *Writer) JSON(v any) error {
	if w.opts.JQ != "" {
		return w.writeFiltered(v)
	}
	return w.writeJSON(w.opts.Out, v)
}

// Textf writes human-readable output to stdout.
func (w *Writer) Textf(format string, args ...any) {
	fmt.Fprintf(w.opts.Out, format, args...)
}

// Notef writes status lines to stderr so they never pollute piped output.
func (w *Writer) Notef(format string, args ...any) {
	fmt.Fprintf(w.opts.ErrOut, format, args...)
}

// Err renders an error to stderr: a JSON envelope under --json, otherwise a
// plain "Error:" line with the hint on its own line.
func (w *Writer) Err(err error) {
	e := AsError(err)
	if w.opts.JSON {
		resp := &ErrorResponse{
			OK:        false,
			Error:     e.Message,
			Code:      e.Code,
			Hint:      e.Hint,
			Retryable: e.Retryable,
		}
		_ = w.writeJSON(w.opts.ErrOut, resp)
		return
	}
	fmt.Fprintf(w.opts.ErrOut, "Error: %s\n", e.Message)
	if e.Hint != "" {
		fmt.Fprintf(w.opts.ErrOut, "Hint: %s\n", e.Hint)
	}
}

func (w *Writer) writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFiltered runs the jq expression over the payload and prints each
// produced value. gojq only accepts plain maps and slices, so typed payloads
// take a JSON round-trip first.
func (w *Writer) writeFiltered(v any) error {
	query, err := gojq.Parse(w.opts.JQ)
	if err != nil {
		return ErrInvalidInputHint(fmt.Sprintf("Invalid --jq expression: %v", err), "See https://jqlang.org/manual/ for syntax")
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return ErrGenericf("Failed to encode output: %v", err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return ErrGenericf("Failed to decode output: %v", err)
	}

	iter := query.Run(plain)
	for {
		result, ok := iter.Next()
		if !ok {
			break
		}
		if runErr, isErr := result.(error); isErr {
			return ErrInvalidInput(fmt.Sprintf("--jq evaluation failed: %v", runErr))
		}
		if err := w.writeJSON(w.opts.Out, result); err != nil {
			return err
		}
	}
	return nil
}
