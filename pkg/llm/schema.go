package llm

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type compiledSchema struct {
	raw    json.RawMessage
	schema *jsonschema.Schema
}

var schemas = mustCompileSchemas()

func mustCompileSchemas() map[Task]compiledSchema {
	out := make(map[Task]compiledSchema, 4)
	for _, task := range []Task{TaskReport, TaskPatch, TaskRelease, TaskPersona} {
		name := "schemas/" + string(task) + ".json"
		raw, err := schemaFS.ReadFile(name)
		if err != nil {
			panic(fmt.Sprintf("llm: read %s: %v", name, err))
		}

		compiler := jsonschema.NewCompiler()
		url := "mem://" + name
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			panic(fmt.Sprintf("llm: add %s: %v", name, err))
		}
		s, err := compiler.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("llm: compile %s: %v", name, err))
		}
		out[task] = compiledSchema{raw: raw, schema: s}
	}
	return out
}

// SchemaFor returns the JSON Schema document for task, or nil.
func SchemaFor(task Task) json.RawMessage {
	return schemas[task].raw
}

// Decode validates raw against the schema of task and unmarshals it into out.
// Any violation wraps ErrMalformed.
func Decode(task Task, raw []byte, out interface{}) error {
	cs, ok := schemas[task]
	if !ok {
		return fmt.Errorf("unknown task %q", task)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: not JSON: %v", ErrMalformed, err)
	}
	if err := cs.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
