package app

import (
	"context"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/fpt/gptchat/pkg/function"
	"github.com/fpt/gptchat/pkg/message"
)

const (
	FunctionGetCurrentTime = "get_current_time"
	FunctionCountWords     = "count_words"
)

type currentTimeParams struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA time zone name such as Europe/Paris. Defaults to UTC."`
}

type currentTimeResult struct {
	Timezone string `json:"timezone"`
	Time     string `json:"time"`
	Weekday  string `json:"weekday"`
}

type countWordsParams struct {
	Text string `json:"text" jsonschema:"required,description=Text to count"`
}

type countWordsResult struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
	Lines      int `json:"lines"`
}

// BuiltinFunctions returns the declarations and handlers of the functions the
// CLI offers to the model. now is injectable for tests.
func BuiltinFunctions(now func() time.Time) ([]message.FunctionDeclaration, *function.HandlerFactory) {
	if now == nil {
		now = time.Now
	}

	declarations := []message.FunctionDeclaration{
		message.NewFunctionDeclaration[currentTimeParams](FunctionGetCurrentTime,
			"Get the current date and time in a time zone"),
		message.NewFunctionDeclaration[countWordsParams](FunctionCountWords,
			"Count the words, characters and lines of a text"),
	}

	handlers := function.NewHandlerFactory().
		MustRegister(FunctionGetCurrentTime, func(_ context.Context, arguments string) (any, error) {
			params, err := message.DecodeArguments[currentTimeParams](&message.FunctionCall{Name: FunctionGetCurrentTime, Arguments: arguments})
			if err != nil {
				return nil, err
			}
			return currentTime(now(), params.Timezone)
		}).
		MustRegister(FunctionCountWords, func(_ context.Context, arguments string) (any, error) {
			params, err := message.DecodeArguments[countWordsParams](&message.FunctionCall{Name: FunctionCountWords, Arguments: arguments})
			if err != nil {
				return nil, err
			}
			return countWords(params.Text), nil
		})

	return declarations, handlers
}

func currentTime(now time.Time, timezone string) (currentTimeResult, error) {
	name := strings.TrimSpace(timezone)
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return currentTimeResult{}, errors.Wrapf(err, "unknown timezone %q", timezone)
	}
	local := now.In(loc)
	return currentTimeResult{
		Timezone: loc.String(),
		Time:     local.Format(time.RFC3339),
		Weekday:  local.Weekday().String(),
	}, nil
}

func countWords(text string) countWordsResult {
	result := countWordsResult{
		Words:      len(strings.Fields(text)),
		Characters: utf8.RuneCountInString(text),
	}
	if text != "" {
		result.Lines = strings.Count(strings.TrimRight(text, "\n"), "\n") + 1
	}
	return result
}
