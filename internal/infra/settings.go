package infra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	settingsDirName  = ".gptchat"
	settingsFileName = "settings.yaml"
)

var ErrSettingsNotFound = errors.New("no settings file found")

// FileSettingsRepository reads and writes settings.yaml on disk
type FileSettingsRepository struct {
	configPath string // empty means search
}

// InMemorySettingsRepository keeps settings in memory only
type InMemorySettingsRepository struct {
	data []byte
}

func NewFileSettingsRepository(configPath string) *FileSettingsRepository {
	return &FileSettingsRepository{configPath: configPath}
}

func NewInMemorySettingsRepository() *InMemorySettingsRepository {
	return &InMemorySettingsRepository{}
}

// HomeSettingsPath is ~/.gptchat/settings.yaml
func HomeSettingsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, settingsDirName, settingsFileName), nil
}

func (fr *FileSettingsRepository) Load() ([]byte, error) {
	configPath := fr.configPath
	if configPath == "" {
		foundPath, err := fr.FindSettingsFile()
		if err != nil {
			return nil, err
		}
		if foundPath == "" {
			return nil, ErrSettingsNotFound
		}
		configPath = foundPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrSettingsNotFound, "%s", configPath)
		}
		return nil, errors.Wrapf(err, "failed to read settings file %s", configPath)
	}
	return data, nil
}

func (fr *FileSettingsRepository) Save(data []byte) error {
	configPath := fr.Location()
	if configPath == "" {
		return errors.New("no settings location available")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}
	return nil
}

// Location is the explicit path, else the first existing file in the search
// order, else the home settings path.
func (fr *FileSettingsRepository) Location() string {
	if fr.configPath != "" {
		return fr.configPath
	}
	if found, _ := fr.FindSettingsFile(); found != "" {
		return found
	}
	homePath, err := HomeSettingsPath()
	if err != nil {
		return ""
	}
	return homePath
}

// FindSettingsFile searches, in order:
// 1. .gptchat/settings.yaml in the current directory
// 2. $HOME/.gptchat/settings.yaml
func (fr *FileSettingsRepository) FindSettingsFile() (string, error) {
	currentDirPath := filepath.Join(settingsDirName, settingsFileName)
	if _, err := os.Stat(currentDirPath); err == nil {
		return currentDirPath, nil
	}

	if homePath, err := HomeSettingsPath(); err == nil {
		if _, err := os.Stat(homePath); err == nil {
			return homePath, nil
		}
	}

	return "", nil
}

func (mr *InMemorySettingsRepository) Load() ([]byte, error) {
	if mr.data == nil {
		return nil, ErrSettingsNotFound
	}
	return mr.data, nil
}

func (mr *InMemorySettingsRepository) Save(data []byte) error {
	mr.data = make([]byte, len(data))
	copy(mr.data, data)
	return nil
}

func (mr *InMemorySettingsRepository) FindSettingsFile() (string, error) {
	return "", nil
}

func (mr *InMemorySettingsRepository) Location() string {
	return ""
}
