package jsonparser

import (
	"encoding/json"
)

// State reports how far Parse had to go to make sense of a buffer.
type State string

const (
	// StateEmpty means the input was empty; nothing to parse yet.
	StateEmpty State = "empty"

	// StateComplete means the input parsed as-is: the buffer holds a full
	// JSON document.
	StateComplete State = "complete"

	// StateRepaired means the input only parsed after Repair closed its
	// unfinished structures: the buffer is valid-so-far but truncated.
	StateRepaired State = "repaired"

	// StateFailed means the input did not parse even after repair: the
	// buffer is malformed, not merely incomplete.
	StateFailed State = "failed"
)

// Result is the outcome of parsing a possibly-truncated buffer.
type Result struct {
	// Value is the decoded JSON value, nil when State is StateEmpty or
	// StateFailed.
	Value interface{}

	// State reports whether the buffer was complete, repairable, or broken.
	State State

	// Err holds the unmarshal error when State is StateFailed.
	Err error
}

// Parse decodes text, tolerating truncation: a buffer that fails to parse
// directly is run through Repair and tried once more. Only a buffer that
// fails both ways is reported as StateFailed — that distinction is what
// lets a tool-call accumulator tell "not done streaming yet" apart from
// "the provider sent garbage".
func Parse(text string) Result {
	if text == "" {
		return Result{State: StateEmpty}
	}

	var value interface{}
	err := json.Unmarshal([]byte(text), &value)
	if err == nil {
		return Result{Value: value, State: StateComplete}
	}

	repaired := Repair(text)
	if repaired == "" {
		return Result{State: StateFailed, Err: err}
	}
	if rerr := json.Unmarshal([]byte(repaired), &value); rerr == nil {
		return Result{Value: value, State: StateRepaired}
	}

	return Result{State: StateFailed, Err: err}
}
