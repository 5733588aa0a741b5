package events

import (
	"time"

	"github.com/fpt/gptchat/pkg/message"
)

// EventType identifies what happened during a conversation turn
type EventType string

const (
	EventTypeFunctionCallStart EventType = "function_call_start"
	EventTypeFunctionResult    EventType = "function_result"
	EventTypeResponse          EventType = "response"
	EventTypeError             EventType = "error"
)

// SessionEvent is a structured event emitted by a chat session
type SessionEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	// Round is set for events raised inside a function-calling loop
	Round *RoundInfo `json:"round,omitempty"`
}

// RoundInfo places an event within a bounded function-calling loop
type RoundInfo struct {
	Current int `json:"current"` // 0-based
	Maximum int `json:"maximum"`
}

type FunctionCallStartData struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type FunctionResultData struct {
	Name     string        `json:"name"`
	Content  string        `json:"content"`
	Duration time.Duration `json:"duration"`
}

// ResponseData carries the assistant message folded back into history
type ResponseData struct {
	Message message.Message    `json:"message"`
	Usage   message.TokenUsage `json:"usage"`
}

type ErrorData struct {
	Error   error  `json:"error"`
	Context string `json:"context,omitempty"`
}

// EventHandler processes session events
type EventHandler func(event SessionEvent)

// EventEmitter fans events out to registered handlers
type EventEmitter interface {
	EmitEvent(eventType EventType, data any)
	EmitRoundEvent(eventType EventType, data any, round, maximum int)
	AddHandler(handler EventHandler)
}

// SimpleEventEmitter calls handlers synchronously, in registration order
type SimpleEventEmitter struct {
	handlers []EventHandler
	now      func() time.Time
}

func NewSimpleEventEmitter() *SimpleEventEmitter {
	return &SimpleEventEmitter{now: time.Now}
}

func (e *SimpleEventEmitter) EmitEvent(eventType EventType, data any) {
	e.emit(SessionEvent{Type: eventType, Timestamp: e.now(), Data: data})
}

func (e *SimpleEventEmitter) EmitRoundEvent(eventType EventType, data any, round, maximum int) {
	e.emit(SessionEvent{
		Type:      eventType,
		Timestamp: e.now(),
		Data:      data,
		Round:     &RoundInfo{Current: round, Maximum: maximum},
	})
}

func (e *SimpleEventEmitter) emit(event SessionEvent) {
	for _, handler := range e.handlers {
		handler(event)
	}
}

func (e *SimpleEventEmitter) AddHandler(handler EventHandler) {
	if handler == nil {
		return
	}
	e.handlers = append(e.handlers, handler)
}
