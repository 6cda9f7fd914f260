package llm

import (
	"context"
	"encoding/json"
)

// Task selects the fixed output shape a Generator must produce.
type Task string

const (
	TaskReport  Task = "report"
	TaskPatch   Task = "patch"
	TaskRelease Task = "release"
	TaskPersona Task = "persona"
)

// Attachment is an enrichment resource sent inline with the prompt.
type Attachment struct {
	MimeType  string
	Data      []byte
	SourceURL string
}

// Request is one structured-output call.
type Request struct {
	Task              Task
	SystemInstruction string
	Prompt            string
	Schema            json.RawMessage
	Attachments       []Attachment

	// Anchor is the literal text a patch task is asked to replace.
	Anchor string
}

// NewRequest fills the system instruction and schema for task.
func NewRequest(task Task, prompt string) Request {
	return Request{
		Task:              task,
		SystemInstruction: SystemInstruction(task),
		Prompt:            prompt,
		Schema:            SchemaFor(task),
	}
}

// Option allows for optional parameters like Temperature.
type Option func(*Options)

type Options struct {
	Temperature float64
	Model       string // provider default
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

// ApplyOptions folds opts over defaults.
func ApplyOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// Generator defines the contract for any reviewer backend. The returned
// bytes are the raw JSON document; callers validate it with Decode.
type Generator interface {
	Generate(ctx context.Context, req Request, options ...Option) ([]byte, error)
}
