package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
)

// SlashCommand represents a command that starts with /
type SlashCommand struct {
	Name        string
	Usage       string
	Description string
	Handler     func(c *Chat, args []string) bool // Returns true if should exit
}

// getSlashCommands returns all available slash commands
func getSlashCommands() []SlashCommand {
	return []SlashCommand{
		{
			Name:        "help",
			Description: "Show available commands and usage information",
			Handler: func(c *Chat, _ []string) bool {
				showInteractiveHelp(c.out)
				return false
			},
		},
		{
			Name:        "history",
			Description: "Show the stored conversation history",
			Handler: func(c *Chat, _ []string) bool {
				history := c.ConversationPreview(0)
				if strings.TrimSpace(history) == "" {
					fmt.Fprintln(c.out, "📜 No conversation history found.")
					return false
				}
				fmt.Fprint(c.out, history)
				return false
			},
		},
		{
			Name:        "status",
			Description: "Show session status and context usage",
			Handler: func(c *Chat, _ []string) bool {
				showStatus(c)
				return false
			},
		},
		{
			Name:        "functions",
			Description: "List the functions declared to the model",
			Handler: func(c *Chat, _ []string) bool {
				showFunctions(c)
				return false
			},
		},
		{
			Name:        "save",
			Usage:       "/save <path>",
			Description: "Export the conversation transcript as YAML",
			Handler: func(c *Chat, args []string) bool {
				if len(args) == 0 {
					fmt.Fprintln(c.out, "❌ Usage: /save <path>")
					return false
				}
				if err := c.SaveTranscript(args[0]); err != nil {
					fmt.Fprintf(c.out, "❌ %v\n", err)
					return false
				}
				fmt.Fprintf(c.out, "💾 Transcript saved to %s\n", args[0])
				return false
			},
		},
		{
			Name:        "quit",
			Description: "Exit the interactive session",
			Handler: func(c *Chat, _ []string) bool {
				fmt.Fprintln(c.out, "👋 Goodbye!")
				return true
			},
		},
		{
			Name:        "exit",
			Description: "Exit the interactive session (alias for quit)",
			Handler: func(c *Chat, _ []string) bool {
				fmt.Fprintln(c.out, "👋 Goodbye!")
				return true
			},
		},
	}
}

// handleSlashCommand processes commands that start with /
// Returns true if the command requests program exit, false otherwise
func handleSlashCommand(input string, c *Chat) bool {
	// Just "/" opens the command selector
	if strings.TrimSpace(input) == "/" {
		return showCommandSelector(c)
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	commandName := strings.TrimPrefix(parts[0], "/")
	commands := getSlashCommands()

	for _, cmd := range commands {
		if cmd.Name == commandName {
			return cmd.Handler(c, parts[1:])
		}
	}

	fmt.Fprintf(c.out, "❌ Unknown command: /%s\n", commandName)
	fmt.Fprintln(c.out, "💡 Available commands:")
	for _, cmd := range commands {
		fmt.Fprintf(c.out, "  /%s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(c.out, "\n💡 Tip: Type just '/' to see an interactive command selector!")
	return false
}

// showCommandSelector shows an interactive command selector using promptui
func showCommandSelector(c *Chat) bool {
	commands := getSlashCommands()

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Name | cyan }} - {{ .Description | faint }}",
		Inactive: "  {{ .Name | cyan }} - {{ .Description | faint }}",
		Selected: "{{ .Name | red | cyan }}",
		Details: `
--------- Command Details ----------
{{ "Name:" | faint }}	{{ .Name }}
{{ "Description:" | faint }}	{{ .Description }}`,
	}

	searcher := func(input string, index int) bool {
		command := commands[index]
		name := strings.ReplaceAll(strings.ToLower(command.Name), " ", "")
		input = strings.ReplaceAll(strings.ToLower(input), " ", "")
		return strings.Contains(name, input)
	}

	prompt := promptui.Select{
		Label:     "Choose a command",
		Items:     commands,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			fmt.Fprintln(c.out, "\nCancelled.")
			return false
		}
		fmt.Fprintf(c.out, "Command selection failed: %v\n", err)
		return false
	}

	selected := commands[i]
	if selected.Usage != "" {
		// commands with arguments are not runnable from the selector
		fmt.Fprintf(c.out, "💡 Usage: %s\n", selected.Usage)
		return false
	}
	return selected.Handler(c, nil)
}

// StartInteractiveMode runs the readline-based REPL
func StartInteractiveMode(ctx context.Context, c *Chat) {
	contextDisplay := NewContextDisplay()

	rlCfg := &readline.Config{
		Prompt:                 "> ",
		HistoryFile:            "",
		AutoComplete:           createAutoCompleter(),
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		HistoryLimit:           2000,
		DisableAutoSaveHistory: false,
		FuncFilterInputRune:    filterInput,
	}

	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Failed to initialize interactive mode: %v\n", err)
		fmt.Fprintln(c.out, "💡 Please use one-shot mode instead: gptchat \"your question\"")
		return
	}
	defer rl.Close()

	WriteSplashScreen(c.out, true)
	fmt.Fprintf(c.out, "🧠 Model: %s (budget %s tokens)\n", c.Session().Model(), humanize.Comma(int64(c.Session().Budget())))
	fmt.Fprintln(c.out, "💬 Commands start with '/', everything else goes to the model!")
	fmt.Fprintln(c.out, strings.Repeat("=", 60))

	for {
		if line := contextDisplay.ShowContextUsage(c); line != "" {
			fmt.Fprintf(c.out, "%s\n", line)
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleSlashCommand(input, c) {
				break
			}
			rl.Clean()
			rl.Refresh()
			continue
		}

		// Ctrl+C during a request cancels it, not the REPL
		execCtx, cancel := context.WithCancel(ctx)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT)

		go func() {
			select {
			case <-sigChan:
				fmt.Fprintln(c.out)
				cancel()
			case <-execCtx.Done():
			}
		}()

		response, invokeErr := c.Invoke(execCtx, input)

		wasCanceled := execCtx.Err() == context.Canceled

		signal.Stop(sigChan)
		close(sigChan)
		cancel()

		if invokeErr != nil {
			if wasCanceled {
				fmt.Fprintln(c.out, "🔄 Ready for next prompt.")
			} else {
				fmt.Fprintf(c.out, "❌ Error: %v\n", invokeErr)
			}
			continue
		}

		WriteResponseHeader(c.out, c.Session().Model(), true)
		fmt.Fprintln(c.out, response)
	}
}

// createAutoCompleter creates an autocompletion function for readline
func createAutoCompleter() *readline.PrefixCompleter {
	commands := getSlashCommands()
	var pcItems []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		pcItems = append(pcItems, readline.PcItem("/"+cmd.Name))
	}
	pcItems = append(pcItems, readline.PcItem("/"))
	return readline.NewPrefixCompleter(pcItems...)
}

// filterInput filters input runes to handle special keys
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showInteractiveHelp(w io.Writer) {
	commands := getSlashCommands()
	fmt.Fprintln(w, "\n📚 Interactive Commands:")
	fmt.Fprintln(w, "  /                - Show interactive command selector")
	for _, cmd := range commands {
		name := "/" + cmd.Name
		if cmd.Usage != "" {
			name = cmd.Usage
		}
		fmt.Fprintf(w, "  %-16s - %s\n", name, cmd.Description)
	}
	fmt.Fprintln(w, "\n⌨️  Keys:")
	fmt.Fprintln(w, "  Ctrl+C           - Cancel current input or running request")
	fmt.Fprintln(w, "  Ctrl+R           - Search this session's input history")
	fmt.Fprintln(w, "  Tab              - Auto-complete commands")
}

func showStatus(c *Chat) {
	s := c.Session()
	usage := NewContextDisplay().CalculateUsage(c)
	last := s.LastTokenUsage()

	fmt.Fprintln(c.out, "\n📊 Session Status:")
	fmt.Fprintf(c.out, "  🆔 Session: %s\n", s.ID())
	fmt.Fprintf(c.out, "  🧠 Model: %s\n", s.Model())
	fmt.Fprintf(c.out, "  💬 Messages: %s\n", humanize.Comma(int64(usage.Messages)))
	fmt.Fprintf(c.out, "  📏 Context: %s of %s token budget (%d%%)\n",
		humanize.Comma(int64(usage.CurrentTokens)), humanize.Comma(int64(usage.Budget)), usage.Percentage)
	if last.TotalTokens > 0 {
		fmt.Fprintf(c.out, "  🔢 Last request: %s in, %s out\n",
			humanize.Comma(int64(last.InputTokens)), humanize.Comma(int64(last.OutputTokens)))
	}
	fmt.Fprintf(c.out, "  🔧 Functions: %d declared\n", len(s.Functions()))
}

func showFunctions(c *Chat) {
	functions := c.Session().Functions()
	if len(functions) == 0 {
		fmt.Fprintln(c.out, "🔧 No functions declared.")
		return
	}
	fmt.Fprintln(c.out, "🔧 Declared functions:")
	for _, f := range functions {
		fmt.Fprintf(c.out, "  %s - %s\n", f.Name, f.Description)
	}
}
