package infra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/gptchat/internal/repository"
)

// FileTranscriptRepository writes a transcript as YAML to a single file
type FileTranscriptRepository struct {
	filePath string
}

func NewFileTranscriptRepository(filePath string) *FileTranscriptRepository {
	return &FileTranscriptRepository{filePath: filePath}
}

var _ repository.TranscriptRepository = (*FileTranscriptRepository)(nil)

func (fr *FileTranscriptRepository) Path() string {
	return fr.filePath
}

// Save implements repository.TranscriptRepository. An existing file is replaced.
func (fr *FileTranscriptRepository) Save(transcript repository.Transcript) error {
	if fr.filePath == "" {
		return errors.New("no file path specified")
	}

	data, err := yaml.Marshal(transcript)
	if err != nil {
		return errors.Wrap(err, "failed to serialize transcript")
	}

	dir := filepath.Dir(fr.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	if err := os.WriteFile(fr.filePath, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write transcript %s", fr.filePath)
	}
	return nil
}

// Clear implements repository.TranscriptRepository
func (fr *FileTranscriptRepository) Clear() error {
	if fr.filePath == "" {
		return errors.New("no file path specified")
	}
	if err := os.Remove(fr.filePath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete transcript %s", fr.filePath)
	}
	return nil
}
