package message

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// FunctionCall is the model's request to invoke a declared function.
// Arguments is the raw JSON object produced by the model; it is decoded on demand
// by whoever handles the call.
type FunctionCall struct {
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

// Equal compares two calls by name and raw arguments. Two nil calls are equal.
func (f *FunctionCall) Equal(other *FunctionCall) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Name == other.Name && f.Arguments == other.Arguments
}

// ValidArguments reports whether Arguments holds well-formed JSON
func (f *FunctionCall) ValidArguments() bool {
	return f != nil && gjson.Valid(f.Arguments)
}

// Argument looks up a single value in the arguments using a gjson path
// (e.g. "location", "options.unit", "items.#").
func (f *FunctionCall) Argument(path string) gjson.Result {
	if f == nil {
		return gjson.Result{}
	}
	return gjson.Get(f.Arguments, path)
}

func (f *FunctionCall) String() string {
	return fmt.Sprintf("%s(%s)", f.Name, f.Arguments)
}

// DecodeArguments unmarshals the call arguments into T
func DecodeArguments[T any](call *FunctionCall) (T, error) {
	var params T
	if call == nil {
		return params, errors.New("no function call to decode")
	}
	if err := json.Unmarshal([]byte(call.Arguments), &params); err != nil {
		return params, errors.Wrapf(err, "failed to decode arguments for %s", call.Name)
	}
	return params, nil
}
