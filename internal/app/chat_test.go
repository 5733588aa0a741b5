package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fpt/gptchat/internal/config"
	"github.com/fpt/gptchat/pkg/client/openai"
	"github.com/fpt/gptchat/pkg/message"
	"github.com/fpt/gptchat/pkg/tokenizer"
)

type scriptedTransport struct {
	requests []*openai.ChatRequest
	replies  []*openai.ChatResponse
}

func (s *scriptedTransport) Send(_ context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i >= len(s.replies) {
		return nil, errors.New("no scripted reply")
	}
	return s.replies[i], nil
}

func assistantReply(content string) *openai.ChatResponse {
	return &openai.ChatResponse{
		Choices: []openai.Choice{{Message: *message.NewAssistantMessage(content)}},
		Usage:   openai.Usage{PromptTokens: 1200, CompletionTokens: 30, TotalTokens: 1230},
	}
}

func functionReply(name, arguments string) *openai.ChatResponse {
	return &openai.ChatResponse{
		Choices: []openai.Choice{{Message: *message.NewFunctionCallMessage(message.FunctionCall{Name: name, Arguments: arguments})}},
	}
}

func testCounter() tokenizer.TokenCounter {
	return tokenizer.CounterFunc(func(text string) int { return len(text) / 4 })
}

func newTestChat(t *testing.T, builtins bool, replies ...*openai.ChatResponse) (*Chat, *scriptedTransport, *bytes.Buffer) {
	t.Helper()
	settings := config.GetDefaultSettings()
	settings.Chat.EnableBuiltinFunctions = builtins
	transport := &scriptedTransport{replies: replies}
	out := &bytes.Buffer{}
	return NewChat(settings, transport, testCounter(), out), transport, out
}

func TestNewChat_SystemPromptAndFunctions(t *testing.T) {
	c, _, _ := newTestChat(t, true)

	history := c.Session().History()
	require.Len(t, history, 1)
	assert.Equal(t, message.RoleSystem, history[0].Role)
	assert.Equal(t, config.DefaultSystemPrompt, history[0].Text())
	assert.Len(t, c.Session().Functions(), 2)
	assert.Equal(t, config.DefaultModel, c.Session().Model())
	assert.Equal(t, 15500, c.Session().Budget())

	plain, _, _ := newTestChat(t, false)
	assert.Empty(t, plain.Session().Functions())
}

func TestInvoke_TextReply(t *testing.T) {
	c, transport, _ := newTestChat(t, false, assistantReply("Bonjour!"))

	reply, err := c.Invoke(context.Background(), "Say hello in French")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour!", reply)

	require.Len(t, transport.requests, 1)
	assert.Empty(t, transport.requests[0].FunctionCall)
	assert.Len(t, c.Session().History(), 3)
}

func TestInvoke_ResolvesBuiltinFunction(t *testing.T) {
	c, transport, out := newTestChat(t, true,
		functionReply(FunctionCountWords, `{"text":"one two three"}`),
		assistantReply("There are three words."),
	)

	reply, err := c.Invoke(context.Background(), "How many words in 'one two three'?")
	require.NoError(t, err)
	assert.Equal(t, "There are three words.", reply)

	require.Len(t, transport.requests, 2)
	sent := transport.requests[1].Messages
	last := sent[len(sent)-1]
	assert.Equal(t, message.RoleFunction, last.Role)
	assert.Equal(t, FunctionCountWords, last.Name)
	assert.JSONEq(t, `{"words":3,"characters":13,"lines":1}`, last.Text())

	assert.Contains(t, out.String(), "🔧 count_words")
}

func TestInvoke_EmptyPrompt(t *testing.T) {
	c, transport, _ := newTestChat(t, false)

	_, err := c.Invoke(context.Background(), "   ")
	assert.Error(t, err)
	assert.Empty(t, transport.requests)
}

func TestSaveTranscript(t *testing.T) {
	c, _, _ := newTestChat(t, false, assistantReply("Hi there"))
	_, err := c.Invoke(context.Background(), "Hi")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "transcript.yaml")
	require.NoError(t, c.SaveTranscript(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		SessionID string `yaml:"session_id"`
		Model     string `yaml:"model"`
		Messages  []struct {
			Role    string `yaml:"role"`
			Content string `yaml:"content"`
		} `yaml:"messages"`
	}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, c.Session().ID(), decoded.SessionID)
	require.Len(t, decoded.Messages, 3)
	assert.Equal(t, "assistant", decoded.Messages[2].Role)
	assert.Equal(t, "Hi there", decoded.Messages[2].Content)
}

func TestSlashCommands(t *testing.T) {
	c, _, out := newTestChat(t, true, assistantReply("Hello!"))
	_, err := c.Invoke(context.Background(), "Hi")
	require.NoError(t, err)

	testCases := []struct {
		input    string
		exit     bool
		contains string
	}{
		{"/help", false, "/save <path>"},
		{"/history", false, "🤖 Assistant: Hello!"},
		{"/status", false, "Messages: 3"},
		{"/status", false, "Last request: 1,200 in, 30 out"},
		{"/functions", false, FunctionGetCurrentTime},
		{"/save", false, "Usage: /save <path>"},
		{"/bogus", false, "Unknown command: /bogus"},
		{"/quit", true, "Goodbye"},
		{"/exit", true, "Goodbye"},
	}

	for _, tc := range testCases {
		out.Reset()
		exit := handleSlashCommand(tc.input, c)
		assert.Equal(t, tc.exit, exit, tc.input)
		assert.Contains(t, out.String(), tc.contains, tc.input)
	}
}

func TestSlashSaveWritesFile(t *testing.T) {
	c, _, out := newTestChat(t, false)
	path := filepath.Join(t.TempDir(), "chat.yaml")

	assert.False(t, handleSlashCommand("/save "+path, c))
	assert.Contains(t, out.String(), "Transcript saved")
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestContextDisplay(t *testing.T) {
	c, _, _ := newTestChat(t, false)
	cd := NewContextDisplay()

	usage := cd.CalculateUsage(c)
	assert.Equal(t, 1, usage.Messages)
	assert.Equal(t, c.Session().ContextLength(), usage.CurrentTokens)
	assert.Equal(t, 15500, usage.Budget)

	line := cd.FormatContextUsage(ContextUsage{CurrentTokens: 12000, Budget: 15500, Percentage: 77}, 60)
	assert.Contains(t, line, "Context: 12,000/15,500 (77%)")
	assert.Contains(t, line, "\033[33m")

	line = cd.FormatContextUsage(ContextUsage{CurrentTokens: 20000, Budget: 15500, Percentage: 100}, 10)
	assert.Contains(t, line, "\033[31m")
}

func TestWriteResponseHeader(t *testing.T) {
	var buf bytes.Buffer
	WriteResponseHeader(&buf, "gpt-4", false)
	assert.Equal(t, "gptchat (gpt-4)\n", buf.String())
}
