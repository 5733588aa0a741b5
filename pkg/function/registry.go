// Package function manages the function declarations attached to chat requests
// and the handlers that execute the calls the model asks for.
package function

import (
	"slices"
	"strings"

	"github.com/fpt/gptchat/pkg/message"
)

// MaxFunctions is the number of functions that can be declared at once
const MaxFunctions = 3

// Registry holds the function declarations sent with every request.
// Names are compared case-insensitively.
type Registry struct {
	declarations []message.FunctionDeclaration
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a declaration. It returns false, without error, when the registry
// is full or a function with the same name is already registered.
func (r *Registry) Add(decl message.FunctionDeclaration) bool {
	if len(r.declarations) >= MaxFunctions || r.Has(decl.Name) {
		return false
	}
	r.declarations = append(r.declarations, decl)
	return true
}

// Remove drops every declaration with the given name
func (r *Registry) Remove(name string) {
	r.declarations = slices.DeleteFunc(r.declarations, func(d message.FunctionDeclaration) bool {
		return strings.EqualFold(d.Name, name)
	})
}

func (r *Registry) Clear() {
	r.declarations = nil
}

func (r *Registry) Has(name string) bool {
	return slices.ContainsFunc(r.declarations, func(d message.FunctionDeclaration) bool {
		return strings.EqualFold(d.Name, name)
	})
}

func (r *Registry) Len() int {
	return len(r.declarations)
}

// Declarations returns the registered declarations in registration order
func (r *Registry) Declarations() []message.FunctionDeclaration {
	return slices.Clone(r.declarations)
}

// Names returns the registered function names in registration order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.declarations))
	for _, d := range r.declarations {
		names = append(names, d.Name)
	}
	return names
}
