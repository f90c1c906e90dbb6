package main

import (
	"encoding/json"
	"io"

	"mesh-thumbnailer/internal/batch"
	"mesh-thumbnailer/internal/thumbnail"
)

// event is one line of streaming output.
type event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// eventWriter prints one JSON object per line. The batch collector is its
// only caller while a batch runs.
type eventWriter struct {
	enc *json.Encoder
}

func newEventWriter(w io.Writer) *eventWriter {
	return &eventWriter{enc: json.NewEncoder(w)}
}

func (e *eventWriter) Result(r thumbnail.Result) error {
	return e.enc.Encode(event{Type: "result", Data: r})
}

func (e *eventWriter) Summary(s batch.Summary) error {
	return e.enc.Encode(event{Type: "summary", Data: s})
}

func writeLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fail prints a failure object in the shape of a result and returns the
// exit code.
func fail(w io.Writer, msg string) int {
	writeIndented(w, struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, msg})
	return 1
}
