package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/fpt/gptchat/internal/config"
	"github.com/fpt/gptchat/internal/infra"
	"github.com/fpt/gptchat/internal/repository"
	"github.com/fpt/gptchat/pkg/chat"
	"github.com/fpt/gptchat/pkg/chat/events"
	"github.com/fpt/gptchat/pkg/client/openai"
	pkgLogger "github.com/fpt/gptchat/pkg/logger"
	"github.com/fpt/gptchat/pkg/message"
	"github.com/fpt/gptchat/pkg/tokenizer"
)

var appLogger = pkgLogger.NewComponentLogger("repl")

// Chat is the application around a chat session: it wires settings, built-in
// functions and output for both one-shot and interactive use.
type Chat struct {
	session  *chat.Session
	settings *config.Settings
	out      io.Writer
}

// NewChat creates a session from settings. The system prompt is recorded first
// and built-in functions are declared when enabled.
func NewChat(settings *config.Settings, transport openai.Transport, counter tokenizer.TokenCounter, out io.Writer) *Chat {
	if out == nil {
		out = os.Stdout
	}

	var opts []chat.Option
	var declarations []message.FunctionDeclaration
	if settings.Chat.EnableBuiltinFunctions {
		decls, handlers := BuiltinFunctions(time.Now)
		declarations = decls
		opts = append(opts, chat.WithHandlers(handlers))
	}

	session := chat.NewSession(settings.LLM.Model, transport, counter, opts...)
	session.AppendSystemMessage(settings.Chat.SystemPrompt)
	for _, decl := range declarations {
		session.AddFunction(decl)
	}

	c := &Chat{session: session, settings: settings, out: out}
	session.Events().AddHandler(c.handleEvent)
	return c
}

func (c *Chat) Session() *chat.Session { return c.session }

func (c *Chat) OutWriter() io.Writer { return c.out }

// Invoke sends prompt, resolves any function calls and returns the reply text
func (c *Chat) Invoke(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}

	resp, err := c.session.Converse(ctx, prompt)
	if err != nil {
		return "", err
	}
	reply := resp.FirstMessage()
	if reply == nil {
		return "", errors.New("no reply received")
	}
	return reply.Text(), nil
}

// SaveTranscript exports the full history to path as YAML
func (c *Chat) SaveTranscript(path string) error {
	return c.saveTranscript(infra.NewFileTranscriptRepository(path))
}

func (c *Chat) saveTranscript(repo repository.TranscriptRepository) error {
	transcript := repository.Transcript{
		SessionID:  c.session.ID(),
		Model:      c.session.Model(),
		ExportedAt: time.Now().UTC(),
		Budget:     c.session.Budget(),
		Tokens:     c.session.ContextLength(),
		Messages:   c.session.History(),
	}
	if err := repo.Save(transcript); err != nil {
		return errors.Wrap(err, "failed to save transcript")
	}
	appLogger.DebugWithIntention(pkgLogger.IntentionSuccess, "Transcript saved", "messages", len(transcript.Messages))
	return nil
}

// ConversationPreview renders the last n messages for /history
func (c *Chat) ConversationPreview(n int) string {
	history := c.session.History()
	if len(history) == 0 {
		return ""
	}
	start := 0
	if n > 0 && len(history) > n {
		start = len(history) - n
	}

	var b strings.Builder
	for i := start; i < len(history); i++ {
		b.WriteString(history[i].TruncatedString())
		b.WriteString("\n")
	}
	return b.String()
}

// handleEvent shows function activity while a prompt is resolved
func (c *Chat) handleEvent(event events.SessionEvent) {
	switch data := event.Data.(type) {
	case events.FunctionCallStartData:
		fmt.Fprintf(c.out, "🔧 %s(%s)\n", data.Name, data.Arguments)
	case events.FunctionResultData:
		content := data.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(c.out, "   ↳ %s (%s)\n", content, data.Duration.Round(time.Millisecond))
	case events.ErrorData:
		appLogger.DebugWithIntention(pkgLogger.IntentionError, "Session error", "context", data.Context, "error", data.Error)
	}
}
