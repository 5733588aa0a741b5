package message

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// FunctionDeclaration describes a callable capability the model may ask to invoke
type FunctionDeclaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

var parameterReflector = &jsonschema.Reflector{
	AllowAdditionalProperties:  false,
	RequiredFromJSONSchemaTags: true,
	DoNotReference:             true,
	Anonymous:                  true,
}

// NewFunctionDeclaration builds a declaration whose parameter schema is reflected
// from the struct type T. Field names come from json tags; mark required fields
// with `jsonschema:"required"`.
func NewFunctionDeclaration[T any](name, description string) FunctionDeclaration {
	var zero T
	t := reflect.TypeOf(zero)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var schema *jsonschema.Schema
	if t != nil {
		schema = parameterReflector.ReflectFromType(t)
		schema.Version = ""
	}

	return FunctionDeclaration{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
}
