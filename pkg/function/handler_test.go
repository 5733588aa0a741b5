package function

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/gptchat/pkg/message"
)

func TestHandlerFactory_Execute(t *testing.T) {
	f := NewHandlerFactory()
	require.NoError(t, f.Register("echo", func(_ context.Context, arguments string) (any, error) {
		call := &message.FunctionCall{Name: "echo", Arguments: arguments}
		return call.Argument("text").String(), nil
	}))

	result, err := f.Execute(context.Background(), "echo", `{"text":"hello"}`)
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
	assert.True(t, f.Has("echo"))
}

func TestHandlerFactory_UnknownFunction(t *testing.T) {
	f := NewHandlerFactory()

	_, err := f.Execute(context.Background(), "get_weather", "{}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoHandler))
	assert.Contains(t, err.Error(), "get_weather")
}

func TestHandlerFactory_HandlerError(t *testing.T) {
	f := NewHandlerFactory()
	boom := errors.New("boom")
	f.MustRegister("fail", func(context.Context, string) (any, error) { return nil, boom })

	_, err := f.Execute(context.Background(), "fail", "{}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "fail")
}

func TestHandlerFactory_Register(t *testing.T) {
	f := NewHandlerFactory()
	noop := func(context.Context, string) (any, error) { return nil, nil }

	require.NoError(t, f.Register("b", noop))
	require.NoError(t, f.Register("a", noop))

	err := f.Register("a", noop)
	assert.True(t, errors.Is(err, ErrDuplicateHandler))

	assert.Error(t, f.Register("nil", nil))
	assert.Equal(t, []string{"a", "b"}, f.Names())

	assert.Panics(t, func() { f.MustRegister("a", noop) })
}
