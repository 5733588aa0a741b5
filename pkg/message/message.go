package message

import (
	"fmt"

	"github.com/pkg/errors"
)

// Message is a single conversation turn in the chat-completion wire format.
// Content is nil only for assistant messages that carry a function call.
type Message struct {
	Role         Role          `json:"role" yaml:"role"`
	Content      *string       `json:"content" yaml:"content,omitempty"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty" yaml:"function_call,omitempty"`
}

// NewMessage creates a message with the given role and content
func NewMessage(role Role, content string) *Message {
	return &Message{Role: role, Content: &content}
}

func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// NewFunctionResultMessage creates the message reporting a function's output back to the model
func NewFunctionResultMessage(name, result string) *Message {
	msg := NewMessage(RoleFunction, result)
	msg.Name = name
	return msg
}

// NewFunctionCallMessage creates an assistant message requesting a function invocation
func NewFunctionCallMessage(call FunctionCall) *Message {
	return &Message{Role: RoleAssistant, FunctionCall: &call}
}

// Text returns the content, or "" when the message has none
func (m *Message) Text() string {
	if m == nil || m.Content == nil {
		return ""
	}
	return *m.Content
}

// HasFunctionCall reports whether the message requests a function invocation
func (m *Message) HasFunctionCall() bool {
	return m != nil && m.FunctionCall != nil
}

// WithContent returns a copy of the message with its content replaced.
// The receiver is left untouched.
func (m *Message) WithContent(content string) Message {
	c := *m
	c.Content = &content
	return c
}

// Equal reports structural equality: role, content, name and function call.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Role != other.Role || m.Name != other.Name {
		return false
	}
	if (m.Content == nil) != (other.Content == nil) {
		return false
	}
	if m.Content != nil && *m.Content != *other.Content {
		return false
	}
	return m.FunctionCall.Equal(other.FunctionCall)
}

// Validate checks the role-specific shape of the message
func (m *Message) Validate() error {
	if m == nil {
		return errors.New("message is nil")
	}
	if m.Role == RoleFunction && m.Name == "" {
		return errors.New("function message requires a name")
	}
	if m.Text() == "" && !(m.Role == RoleAssistant && m.HasFunctionCall()) {
		return errors.Errorf("%s message requires content", m.Role)
	}
	return nil
}

func (m *Message) String() string {
	if m.HasFunctionCall() {
		return fmt.Sprintf("Message(Role: %s, FunctionCall: %s(%s))", m.Role, m.FunctionCall.Name, m.FunctionCall.Arguments)
	}
	if m.Name != "" {
		return fmt.Sprintf("Message(Role: %s, Name: %s, Content: %q)", m.Role, m.Name, m.Text())
	}
	return fmt.Sprintf("Message(Role: %s, Content: %q)", m.Role, m.Text())
}

// TruncatedString returns a short, user-friendly representation for history previews
func (m *Message) TruncatedString() string {
	content := m.Text()

	switch m.Role {
	case RoleUser:
		if len(content) > 150 {
			content = content[:150] + "..."
		}
		return fmt.Sprintf("👤 You: %s", content)

	case RoleAssistant:
		if m.HasFunctionCall() {
			return fmt.Sprintf("🔧 Requested function: %s", m.FunctionCall.Name)
		}
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		return fmt.Sprintf("🤖 Assistant: %s", content)

	case RoleFunction:
		if len(content) > 100 {
			content = content[:100] + "..."
		}
		return fmt.Sprintf("   ↳ %s: %s", m.Name, content)

	default:
		if len(content) > 100 {
			content = content[:100] + "..."
		}
		return fmt.Sprintf("[%s] %s", m.Role, content)
	}
}
