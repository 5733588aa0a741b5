package function

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrNoHandler        = errors.New("no handler found for function")
	ErrDuplicateHandler = errors.New("handler already registered for function")
)

// Handler executes a function call. arguments is the raw JSON the model produced;
// the handler decodes it into whatever shape it expects.
type Handler func(ctx context.Context, arguments string) (any, error)

// HandlerFactory maps function names to handlers
type HandlerFactory struct {
	handlers map[string]Handler
}

func NewHandlerFactory() *HandlerFactory {
	return &HandlerFactory{handlers: make(map[string]Handler)}
}

// Register adds a handler for name
func (f *HandlerFactory) Register(name string, handler Handler) error {
	if handler == nil {
		return errors.Errorf("nil handler for function: %s", name)
	}
	if _, exists := f.handlers[name]; exists {
		return errors.Wrapf(ErrDuplicateHandler, "%s", name)
	}
	f.handlers[name] = handler
	return nil
}

// MustRegister is Register for static wiring; it panics on error
func (f *HandlerFactory) MustRegister(name string, handler Handler) *HandlerFactory {
	if err := f.Register(name, handler); err != nil {
		panic(err)
	}
	return f
}

// Has reports whether a handler is registered for name
func (f *HandlerFactory) Has(name string) bool {
	_, ok := f.handlers[name]
	return ok
}

// Execute runs the handler registered for name. An unknown name fails with ErrNoHandler.
func (f *HandlerFactory) Execute(ctx context.Context, name, arguments string) (any, error) {
	handler, ok := f.handlers[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoHandler, "%s", name)
	}
	result, err := handler(ctx, arguments)
	if err != nil {
		return nil, errors.Wrapf(err, "function %s failed", name)
	}
	return result, nil
}

// Names returns the registered function names, sorted
func (f *HandlerFactory) Names() []string {
	names := make([]string, 0, len(f.handlers))
	for name := range f.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
