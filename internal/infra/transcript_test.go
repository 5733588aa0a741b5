package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fpt/gptchat/internal/repository"
	"github.com/fpt/gptchat/pkg/message"
)

func TestFileTranscriptRepository_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chat.yaml")
	repo := NewFileTranscriptRepository(path)

	transcript := repository.Transcript{
		SessionID:  "abc",
		Model:      "gpt-4",
		ExportedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Budget:     7500,
		Tokens:     42,
		Messages: []message.Message{
			*message.NewSystemMessage("Be brief"),
			*message.NewUserMessage("Hi"),
			*message.NewFunctionCallMessage(message.FunctionCall{Name: "count_words", Arguments: `{"text":"a b"}`}),
			*message.NewFunctionResultMessage("count_words", `{"words":2}`),
		},
	}
	require.NoError(t, repo.Save(transcript))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		SessionID string `yaml:"session_id"`
		Model     string `yaml:"model"`
		Messages  []struct {
			Role         string `yaml:"role"`
			Content      string `yaml:"content"`
			Name         string `yaml:"name"`
			FunctionCall *struct {
				Name string `yaml:"name"`
			} `yaml:"function_call"`
		} `yaml:"messages"`
	}
	require.NoError(t, yaml.Unmarshal(data, &decoded))

	assert.Equal(t, "abc", decoded.SessionID)
	require.Len(t, decoded.Messages, 4)
	assert.Equal(t, "system", decoded.Messages[0].Role)
	assert.Equal(t, "Hi", decoded.Messages[1].Content)
	require.NotNil(t, decoded.Messages[2].FunctionCall)
	assert.Equal(t, "count_words", decoded.Messages[2].FunctionCall.Name)
	assert.Equal(t, "function", decoded.Messages[3].Role)
	assert.Equal(t, "count_words", decoded.Messages[3].Name)
}

func TestFileTranscriptRepository_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	repo := NewFileTranscriptRepository(path)

	require.NoError(t, repo.Clear(), "clearing a missing file is not an error")
	require.NoError(t, repo.Save(repository.Transcript{Model: "gpt-4"}))
	require.NoError(t, repo.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileTranscriptRepository_NoPath(t *testing.T) {
	repo := NewFileTranscriptRepository("")
	assert.Error(t, repo.Save(repository.Transcript{}))
	assert.Error(t, repo.Clear())
}
