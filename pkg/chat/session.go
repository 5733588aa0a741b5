// Package chat drives a conversation against a chat-completion endpoint: it
// records turns, builds budget-safe requests and folds replies back into history.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fpt/gptchat/pkg/chat/events"
	"github.com/fpt/gptchat/pkg/client/openai"
	"github.com/fpt/gptchat/pkg/function"
	"github.com/fpt/gptchat/pkg/history"
	pkgLogger "github.com/fpt/gptchat/pkg/logger"
	"github.com/fpt/gptchat/pkg/message"
	"github.com/fpt/gptchat/pkg/tokenizer"
)

// MaxFunctionRounds bounds how many function calls Converse resolves for one prompt
const MaxFunctionRounds = 5

var ErrTooManyFunctionRounds = errors.New("exceeded maximum function call rounds")

var sessionLogger = pkgLogger.NewComponentLogger("chat-session")

// Session is a single conversation. It is not safe for concurrent use; callers
// serialize operations on one session.
type Session struct {
	id        string
	model     string
	history   *history.Manager
	functions *function.Registry
	handlers  *function.HandlerFactory
	transport openai.Transport
	emitter   *events.SimpleEventEmitter
	lastUsage message.TokenUsage
	logger    *pkgLogger.Logger
}

// Option customizes a Session at construction
type Option func(*Session)

// WithHandlers sets the handlers used to resolve function calls
func WithHandlers(handlers *function.HandlerFactory) Option {
	return func(s *Session) {
		s.handlers = handlers
	}
}

// WithBudget overrides the model's token budget
func WithBudget(budget int, counter tokenizer.TokenCounter) Option {
	return func(s *Session) {
		s.history = history.NewManagerWithBudget(budget, counter)
	}
}

// NewSession creates a session for model. The budget comes from the model table.
func NewSession(model string, transport openai.Transport, counter tokenizer.TokenCounter, opts ...Option) *Session {
	id := uuid.NewString()
	s := &Session{
		id:        id,
		model:     model,
		history:   history.NewManager(model, counter),
		functions: function.NewRegistry(),
		transport: transport,
		emitter:   events.NewSimpleEventEmitter(),
		logger:    sessionLogger.WithSession(id),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.DebugWithIntention(pkgLogger.IntentionConfig, "Chat session created",
		"model", model, "budget", s.history.Budget())
	return s
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Model() string { return s.model }
func (s *Session) Budget() int   { return s.history.Budget() }

// Events exposes the emitter so callers can observe function calls and replies
func (s *Session) Events() events.EventEmitter { return s.emitter }

// AppendSystemMessage records a system instruction. Blank text is ignored.
func (s *Session) AppendSystemMessage(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.history.Append(message.NewSystemMessage(text))
}

// AppendUserPrompt records a user turn. Blank text is ignored.
func (s *Session) AppendUserPrompt(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.history.Append(message.NewUserMessage(text))
}

// AppendFunctionResult records the output of a function the model asked for
func (s *Session) AppendFunctionResult(name, result string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	s.history.Append(message.NewFunctionResultMessage(name, result))
}

// AddFunction declares a function for subsequent requests. It returns false
// when the declaration was dropped (registry full or name taken).
func (s *Session) AddFunction(decl message.FunctionDeclaration) bool {
	added := s.functions.Add(decl)
	if !added {
		s.logger.WarnWithIntention(pkgLogger.IntentionWarning, "Function declaration dropped",
			"name", decl.Name, "declared", s.functions.Len(), "max", function.MaxFunctions)
	}
	return added
}

func (s *Session) RemoveFunction(name string) {
	s.functions.Remove(name)
}

func (s *Session) ClearFunctions() {
	s.functions.Clear()
}

// Functions returns the declared functions in registration order
func (s *Session) Functions() []message.FunctionDeclaration {
	return s.functions.Declarations()
}

// BuildRequest assembles the next request from the budget-safe view of history
func (s *Session) BuildRequest() *openai.ChatRequest {
	req := &openai.ChatRequest{
		Model:    s.model,
		Messages: s.history.BudgetSafeView(),
	}
	if s.functions.Len() > 0 {
		req.Functions = s.functions.Declarations()
		req.FunctionCall = openai.FunctionCallAuto
	}
	return req
}

// Submit sends req and, on success, appends the first choice's message to
// history. On failure nothing is appended and the error is returned.
func (s *Session) Submit(ctx context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error) {
	if req == nil {
		return nil, errors.New("chat request is nil")
	}

	resp, err := s.transport.Send(ctx, req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			s.logger.InfoWithIntention(pkgLogger.IntentionCancel, "Request cancelled. History preserved.")
		}
		s.emitter.EmitEvent(events.EventTypeError, events.ErrorData{Error: err, Context: "submit"})
		return nil, errors.Wrap(err, "failed to submit chat request")
	}
	if resp == nil {
		return nil, errors.New("transport returned no response")
	}
	if !resp.IsSuccess() {
		err := errors.Wrapf(openai.ErrAPI, "%s: %s", resp.Error.Type, resp.Error.Message)
		s.emitter.EmitEvent(events.EventTypeError, events.ErrorData{Error: err, Context: "submit"})
		return nil, err
	}

	s.lastUsage = resp.TokenUsage()

	reply := resp.FirstMessage()
	if reply == nil {
		s.logger.WarnWithIntention(pkgLogger.IntentionWarning, "Response carried no choices", "id", resp.ID)
		return resp, nil
	}
	s.history.Append(reply)

	s.logger.DebugWithIntention(pkgLogger.IntentionStatistics, "Reply appended",
		"messages", s.history.Count(),
		"input_tokens", s.lastUsage.InputTokens,
		"output_tokens", s.lastUsage.OutputTokens,
		"function_call", reply.HasFunctionCall())

	if !reply.HasFunctionCall() {
		s.emitter.EmitEvent(events.EventTypeResponse, events.ResponseData{Message: *reply, Usage: s.lastUsage})
	}
	return resp, nil
}

// SubmitPrompt appends a user prompt, then builds and submits a request
func (s *Session) SubmitPrompt(ctx context.Context, prompt string) (*openai.ChatResponse, error) {
	s.AppendUserPrompt(prompt)
	return s.Submit(ctx, s.BuildRequest())
}

// SubmitFunctionResult appends a function result, then builds and submits a request
func (s *Session) SubmitFunctionResult(ctx context.Context, name, result string) (*openai.ChatResponse, error) {
	s.AppendFunctionResult(name, result)
	return s.Submit(ctx, s.BuildRequest())
}

// ResolveFunctionCall executes the function requested by resp and submits its
// result. A response without a function call is returned unchanged.
func (s *Session) ResolveFunctionCall(ctx context.Context, resp *openai.ChatResponse) (*openai.ChatResponse, error) {
	return s.resolveFunctionCall(ctx, resp, 0, 1)
}

func (s *Session) resolveFunctionCall(ctx context.Context, resp *openai.ChatResponse, round, maxRounds int) (*openai.ChatResponse, error) {
	if !resp.IsFunctionCall() {
		return resp, nil
	}
	call := resp.FirstMessage().FunctionCall

	if s.handlers == nil {
		return nil, errors.Wrapf(function.ErrNoHandler, "%s", call.Name)
	}

	select {
	case <-ctx.Done():
		s.logger.InfoWithIntention(pkgLogger.IntentionCancel, "Cancelled before function execution. History preserved.")
		return nil, ctx.Err()
	default:
	}

	s.emitter.EmitRoundEvent(events.EventTypeFunctionCallStart, events.FunctionCallStartData{
		Name:      call.Name,
		Arguments: call.Arguments,
	}, round, maxRounds)

	s.logger.InfoWithIntention(pkgLogger.IntentionFunction, "Executing function",
		"name", call.Name, "round", round+1)

	start := time.Now()
	result, err := s.handlers.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		s.emitter.EmitEvent(events.EventTypeError, events.ErrorData{Error: err, Context: "function " + call.Name})
		return nil, err
	}

	content, err := encodeResult(result)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode result of function %s", call.Name)
	}

	s.emitter.EmitRoundEvent(events.EventTypeFunctionResult, events.FunctionResultData{
		Name:     call.Name,
		Content:  content,
		Duration: time.Since(start),
	}, round, maxRounds)

	return s.SubmitFunctionResult(ctx, call.Name, content)
}

// Converse submits prompt and resolves function calls until the model answers
// in text, up to MaxFunctionRounds calls.
func (s *Session) Converse(ctx context.Context, prompt string) (*openai.ChatResponse, error) {
	resp, err := s.SubmitPrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	for round := 0; resp.IsFunctionCall(); round++ {
		if round >= MaxFunctionRounds {
			return nil, errors.Wrapf(ErrTooManyFunctionRounds, "%d", MaxFunctionRounds)
		}
		resp, err = s.resolveFunctionCall(ctx, resp, round, MaxFunctionRounds)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// History returns a copy of every stored message, oldest first
func (s *Session) History() []message.Message {
	return s.history.Dump()
}

// ContextLength is the token count of the full stored history
func (s *Session) ContextLength() int {
	return s.history.Length()
}

// MessageCount is the number of stored messages
func (s *Session) MessageCount() int {
	return s.history.Count()
}

// LastTokenUsage reports the usage of the most recent successful submission
func (s *Session) LastTokenUsage() message.TokenUsage {
	return s.lastUsage
}

// encodeResult turns a handler result into function message content.
// Strings pass through; anything else is JSON encoded.
func encodeResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
