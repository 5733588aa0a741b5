package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fpt/gptchat/internal/app"
	"github.com/fpt/gptchat/internal/config"
	"github.com/fpt/gptchat/pkg/client/openai"
	pkgLogger "github.com/fpt/gptchat/pkg/logger"
	"github.com/fpt/gptchat/pkg/tokenizer"
)

// promptSeparator splits a prompt file into turns
const promptSeparator = "----"

type options struct {
	model        string
	deployment   string
	settingsPath string
	system       string
	promptFile   string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gptchat [prompt]",
		Short: "Chat with OpenAI and Azure OpenAI chat-completion deployments",
		Long: `gptchat keeps a conversation with a chat-completion model. Older turns are
left out of each request once the history outgrows the model's token budget.

Settings are read from .gptchat/settings.yaml or ~/.gptchat/settings.yaml.
The API key comes from OPENAI_API_KEY (direct) or AZURE_OPENAI_API_KEY (azure),
optionally through a .env file in the working directory.`,
		Example: `  gptchat                                  # Interactive mode
  gptchat "Explain Go channels"            # One-shot mode
  echo "Summarize this" | gptchat          # Prompt from stdin
  gptchat -m gpt-4 -d azure "Hello"        # Azure deployment
  gptchat -f prompts.txt                   # Multi-turn from file, turns separated by '----'`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.model, "model", "m", "", "Model name (selects the token budget)")
	flags.StringVarP(&opts.deployment, "deployment", "d", "", "Deployment: direct or azure")
	flags.StringVar(&opts.settingsPath, "settings", "", "Path to settings file")
	flags.StringVar(&opts.system, "system", "", "System prompt (overrides settings)")
	flags.StringVarP(&opts.promptFile, "file", "f", "", "File containing prompts separated by '----'")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging (debug level)")

	return cmd
}

func run(ctx context.Context, opts *options, args []string) error {
	config.LoadEnv()

	settings, err := config.LoadSettings(opts.settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}

	logLevel := settings.LogLevel
	if opts.verbose {
		logLevel = string(pkgLogger.LogLevelDebug)
	}
	out := os.Stdout
	pkgLogger.SetGlobalLoggerWithConsoleWriter(pkgLogger.LogLevel(logLevel), os.Stderr)
	logger := pkgLogger.NewComponentLogger("main")

	if opts.verbose {
		logger.DebugWithIntention(pkgLogger.IntentionStatistics, "Verbose logging enabled",
			"log_level", logLevel, "settings", settings.Location(), "log_file", pkgLogger.LogFilePath())
	}

	// Command line overrides settings
	if opts.model != "" {
		settings.LLM.Model = opts.model
	}
	if opts.deployment != "" {
		settings.LLM.Deployment = opts.deployment
	}
	if opts.system != "" {
		settings.Chat.SystemPrompt = opts.system
	}

	if err := config.ValidateSettings(settings); err != nil {
		return err
	}

	clientConfig, err := settings.ClientConfig()
	if err != nil {
		return err
	}
	client, err := openai.NewClient(clientConfig)
	if err != nil {
		return err
	}

	counter, err := tokenizer.NewDefaultCounter()
	if err != nil {
		return err
	}

	c := app.NewChat(settings, client, counter, out)
	logger.DebugWithIntention(pkgLogger.IntentionConfig, "Chat ready",
		"model", settings.LLM.Model,
		"deployment", client.Deployment().String(),
		"session", c.Session().ID())

	switch {
	case opts.promptFile != "":
		return executeMultiTurnFile(ctx, c, opts.promptFile)
	case len(args) > 0:
		return executeCommand(ctx, c, strings.Join(args, " "))
	case !term.IsTerminal(int(os.Stdin.Fd())):
		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		return executeCommand(ctx, c, string(input))
	default:
		app.StartInteractiveMode(ctx, c)
		return nil
	}
}

func executeCommand(ctx context.Context, c *app.Chat, userInput string) error {
	response, err := c.Invoke(ctx, userInput)
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	w := c.OutWriter()
	app.WriteResponseHeader(w, c.Session().Model(), false)
	fmt.Fprintln(w, response)
	printTokenUsage(c)
	return nil
}

func executeMultiTurnFile(ctx context.Context, c *app.Chat, filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read prompt file '%s': %w", filePath, err)
	}

	prompts := strings.Split(string(content), promptSeparator)
	w := c.OutWriter()
	fmt.Fprintf(w, "Executing %d turns from file: %s\n\n", len(prompts), filePath)

	for i, prompt := range prompts {
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			continue
		}

		fmt.Fprintf(w, "Turn %d/%d:\n", i+1, len(prompts))
		fmt.Fprintf(w, "Prompt: %s\n\n", prompt)

		response, err := c.Invoke(ctx, prompt)
		if err != nil {
			fmt.Fprintf(w, "Turn %d failed: %v\n", i+1, err)
			continue
		}

		app.WriteResponseHeader(w, c.Session().Model(), false)
		fmt.Fprintln(w, response)
		fmt.Fprintf(w, "%s\n\n", strings.Repeat("-", 60))
		printTokenUsage(c)
	}

	fmt.Fprintln(w, "All turns completed.")
	return nil
}

// printTokenUsage writes a [usage] line to stderr so stdout stays parseable.
// Format: [usage] input=N output=N total=N context=N budget=N
func printTokenUsage(c *app.Chat) {
	s := c.Session()
	usage := s.LastTokenUsage()
	fmt.Fprintf(os.Stderr, "[usage] input=%d output=%d total=%d context=%d budget=%d\n",
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens, s.ContextLength(), s.Budget())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
