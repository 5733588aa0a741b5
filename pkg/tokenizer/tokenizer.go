// Package tokenizer counts encoded tokens the way the chat-completion API does.
package tokenizer

import (
	"encoding/json"

	"github.com/pkg/errors"
	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/fpt/gptchat/pkg/message"
)

// EncodingCL100kBase is the encoding used by the gpt-3.5-turbo and gpt-4 families
const EncodingCL100kBase = "cl100k_base"

// TokenCounter returns the number of encoded tokens in text
type TokenCounter interface {
	Count(text string) int
}

// CounterFunc adapts a plain function to TokenCounter
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int { return f(text) }

// TiktokenCounter implements TokenCounter using a tiktoken encoding
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the given encoding name.
// The BPE ranks are fetched and cached by tiktoken-go on first use.
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, errors.Wrapf(err, "load tiktoken encoding %q", encodingName)
	}
	return &TiktokenCounter{encoding: enc}, nil
}

// NewDefaultCounter creates a cl100k_base counter
func NewDefaultCounter() (*TiktokenCounter, error) {
	return NewTiktokenCounter(EncodingCL100kBase)
}

func (t *TiktokenCounter) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// MessageCost is the token count of the message's JSON wire form, which is what
// the budget is measured against. A message that cannot be encoded costs 0.
func MessageCost(counter TokenCounter, msg message.Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0
	}
	return counter.Count(string(data))
}

// HistoryCost is the token count of the JSON array encoding of messages
func HistoryCost(counter TokenCounter, messages []message.Message) int {
	if messages == nil {
		messages = []message.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return 0
	}
	return counter.Count(string(data))
}
