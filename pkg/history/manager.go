// Package history owns the conversation history and decides which part of it
// fits in the model's token budget.
package history

import (
	"slices"

	pkgLogger "github.com/fpt/gptchat/pkg/logger"
	"github.com/fpt/gptchat/pkg/message"
	"github.com/fpt/gptchat/pkg/tokenizer"
)

const (
	// TruncatedPlaceholder replaces the content of a message that cannot fit the budget on its own
	TruncatedPlaceholder = "Truncated message"
	// ResetNotice is the content of the system message returned when no history fits
	ResetNotice = "The chat context was reset due to an error."
)

var logger = pkgLogger.NewComponentLogger("context-manager")

// Manager holds the append-only conversation history and builds budget-safe views of it.
// It is not safe for concurrent use; one Manager belongs to one conversation.
type Manager struct {
	messages []message.Message
	budget   int
	counter  tokenizer.TokenCounter
}

// NewManager creates a manager whose budget is looked up from the model identifier
func NewManager(model string, counter tokenizer.TokenCounter) *Manager {
	return NewManagerWithBudget(BudgetForModel(model), counter)
}

// NewManagerWithBudget creates a manager with an explicit token budget
func NewManagerWithBudget(budget int, counter tokenizer.TokenCounter) *Manager {
	if budget < 0 {
		budget = 0
	}
	return &Manager{
		messages: make([]message.Message, 0),
		budget:   budget,
		counter:  counter,
	}
}

// Append adds a message at the tail. A nil message is ignored.
// No budget check happens here; overflow is resolved when a view is built.
func (m *Manager) Append(msg *message.Message) {
	if msg == nil {
		return
	}
	m.messages = append(m.messages, *msg)
}

// Budget returns the token budget
func (m *Manager) Budget() int {
	return m.budget
}

// Count returns the number of stored messages
func (m *Manager) Count() int {
	return len(m.messages)
}

// Length returns the token cost of the entire history, not of the budget-safe view
func (m *Manager) Length() int {
	return tokenizer.HistoryCost(m.counter, m.messages)
}

// Dump returns a copy of the full, untruncated history
func (m *Manager) Dump() []message.Message {
	out := make([]message.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

type stopReason string

const (
	stopExhausted stopReason = "exhausted"
	stopBudget    stopReason = "budget"
	stopDuplicate stopReason = "duplicate"
)

// BudgetSafeView returns the longest suffix of the history whose token cost fits
// the budget, in chronological order.
//
// The scan walks backwards from the newest message and stops at the first message
// that would overflow the budget or that repeats a message already in the window,
// so the result is always a contiguous tail. A message whose own cost is zero or
// larger than the whole budget is represented by a copy with TruncatedPlaceholder
// content. When nothing fits, a single system message carrying ResetNotice is
// returned. Stored history is never modified.
func (m *Manager) BudgetSafeView() []message.Message {
	window := make([]message.Message, 0)
	total := 0
	truncated := 0
	reason := stopExhausted

	for i := len(m.messages) - 1; i >= 0; i-- {
		candidate := m.messages[i]

		cost := tokenizer.MessageCost(m.counter, candidate)
		if cost == 0 || cost > m.budget {
			candidate = candidate.WithContent(TruncatedPlaceholder)
			cost = tokenizer.MessageCost(m.counter, candidate)
			truncated++
		}

		if slices.ContainsFunc(window, func(included message.Message) bool { return included.Equal(&candidate) }) {
			reason = stopDuplicate
			break
		}
		if total+cost > m.budget {
			reason = stopBudget
			break
		}

		window = append(window, candidate)
		total += cost
	}

	slices.Reverse(window)

	logger.DebugWithIntention(pkgLogger.IntentionStatistics, "Built budget-safe view",
		"history", len(m.messages),
		"window", len(window),
		"tokens", total,
		"budget", m.budget,
		"truncated", truncated,
		"stop_reason", string(reason))

	if len(window) == 0 {
		logger.WarnWithIntention(pkgLogger.IntentionWarning, "No history fits the token budget, sending reset notice",
			"history", len(m.messages), "budget", m.budget)
		return []message.Message{*message.NewSystemMessage(ResetNotice)}
	}

	return window
}
