package repository

import (
	"time"

	"github.com/fpt/gptchat/pkg/message"
)

// Transcript is an exported conversation. It is written for people to read;
// nothing loads it back into a session.
type Transcript struct {
	SessionID  string            `yaml:"session_id"`
	Model      string            `yaml:"model"`
	ExportedAt time.Time         `yaml:"exported_at"`
	Budget     int               `yaml:"budget"`
	Tokens     int               `yaml:"tokens"`
	Messages   []message.Message `yaml:"messages"`
}

// TranscriptRepository abstracts transcript export
type TranscriptRepository interface {
	Save(transcript Transcript) error
	Clear() error // Delete the exported file
}
