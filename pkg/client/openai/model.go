package openai

import (
	"github.com/fpt/gptchat/pkg/message"
)

// FunctionCallAuto lets the model decide whether to call a declared function
const FunctionCallAuto = "auto"

// ChatRequest is the chat-completion request body
type ChatRequest struct {
	Model        string                        `json:"model"`
	Messages     []message.Message             `json:"messages"`
	Functions    []message.FunctionDeclaration `json:"functions,omitempty"`
	FunctionCall string                        `json:"function_call,omitempty"`
}

// ChatResponse is the chat-completion response body
type ChatResponse struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Created int64     `json:"created"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   Usage     `json:"usage"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Index        int             `json:"index"`
	Message      message.Message `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError is the error object some gateways return with a 2xx status
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// FirstMessage returns the message of the first choice, or nil when there is none
func (r *ChatResponse) FirstMessage() *message.Message {
	if r == nil || len(r.Choices) == 0 {
		return nil
	}
	return &r.Choices[0].Message
}

// IsFunctionCall reports whether the first choice asks for a function invocation
func (r *ChatResponse) IsFunctionCall() bool {
	return r.FirstMessage().HasFunctionCall()
}

func (r *ChatResponse) IsSuccess() bool {
	return r != nil && r.Error == nil
}

// TokenUsage converts the reported usage into the message package representation
func (r *ChatResponse) TokenUsage() message.TokenUsage {
	return message.TokenUsage{
		InputTokens:  r.Usage.PromptTokens,
		OutputTokens: r.Usage.CompletionTokens,
		TotalTokens:  r.Usage.TotalTokens,
	}
}
