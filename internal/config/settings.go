package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/gptchat/internal/infra"
	"github.com/fpt/gptchat/internal/repository"
	"github.com/fpt/gptchat/pkg/client/openai"
	pkgLogger "github.com/fpt/gptchat/pkg/logger"
)

const (
	DefaultModel          = "gpt-3.5-turbo-16k"
	DefaultSystemPrompt   = "You are a helpful assistant."
	DefaultTimeoutSeconds = 60

	// API key environment variables, one per deployment
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvAzureAPIKey  = "AZURE_OPENAI_API_KEY"
)

var ErrUnsupportedDeployment = errors.New("unsupported deployment")

var settingsLogger = pkgLogger.NewComponentLogger("settings")

// Settings represents the application settings file
type Settings struct {
	LLM      LLMSettings  `yaml:"llm"`
	Chat     ChatSettings `yaml:"chat"`
	LogLevel string       `yaml:"log_level"`

	// Repository for persistence (nil for in-memory only)
	settingsRepository repository.SettingsRepository `yaml:"-"`
}

// LLMSettings selects the endpoint and model
type LLMSettings struct {
	Deployment     string `yaml:"deployment"`         // "direct" or "azure"
	Model          string `yaml:"model"`              // also selects the token budget
	BaseURL        string `yaml:"base_url,omitempty"` // direct only
	ChatURL        string `yaml:"chat_url,omitempty"` // azure only, full chat completions URL
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ChatSettings shapes the conversation
type ChatSettings struct {
	SystemPrompt           string `yaml:"system_prompt"`
	EnableBuiltinFunctions bool   `yaml:"enable_builtin_functions"`
}

// NewSettings creates new settings with in-memory repository
func NewSettings() *Settings {
	return NewSettingsWithRepository(infra.NewInMemorySettingsRepository())
}

// NewSettingsWithRepository creates new settings with injected repository
func NewSettingsWithRepository(settingsRepository repository.SettingsRepository) *Settings {
	settings := GetDefaultSettings()
	settings.settingsRepository = settingsRepository
	return settings
}

// NewSettingsWithPath creates new settings with file-based repository
func NewSettingsWithPath(configPath string) *Settings {
	return NewSettingsWithRepository(infra.NewFileSettingsRepository(configPath))
}

// Load reads settings from the repository and fills in missing fields
func (s *Settings) Load() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := s.settingsRepository.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return errors.Wrap(err, "failed to parse settings")
	}

	applyDefaults(s)
	return nil
}

// Save writes settings to the repository
func (s *Settings) Save() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	return s.settingsRepository.Save(data)
}

// Location is where the settings were found or will be saved
func (s *Settings) Location() string {
	if s.settingsRepository == nil {
		return ""
	}
	return s.settingsRepository.Location()
}

// LoadSettings loads settings from configPath, or searches the default
// locations when configPath is empty. A missing file is created with defaults.
func LoadSettings(configPath string) (*Settings, error) {
	settings := NewSettingsWithPath(configPath)

	if configPath == "" {
		foundPath, _ := settings.settingsRepository.FindSettingsFile()
		if foundPath == "" {
			return createDefaultSettingsFile()
		}
	}

	err := settings.Load()
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, infra.ErrSettingsNotFound) {
		// a malformed file is reported instead of silently replaced
		return nil, err
	}
	return createSettingsFileAtPath(settings.Location())
}

// LoadEnv loads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		settingsLogger.WarnWithIntention(pkgLogger.IntentionWarning, "Failed to load .env", "error", err)
	}
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		LLM: LLMSettings{
			Deployment:     openai.DeploymentDirect.String(),
			Model:          DefaultModel,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Chat: ChatSettings{
			SystemPrompt:           DefaultSystemPrompt,
			EnableBuiltinFunctions: true,
		},
		LogLevel: string(pkgLogger.LogLevelInfo),
	}
}

// applyDefaults fills in missing fields with default values
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.LLM.Deployment == "" {
		settings.LLM.Deployment = defaults.LLM.Deployment
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = defaults.LLM.Model
	}
	if settings.LLM.TimeoutSeconds == 0 {
		settings.LLM.TimeoutSeconds = defaults.LLM.TimeoutSeconds
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
}

// APIKeyEnv names the environment variable holding the key for a deployment
func APIKeyEnv(deployment openai.Deployment) string {
	if deployment == openai.DeploymentAzure {
		return EnvAzureAPIKey
	}
	return EnvOpenAIAPIKey
}

// ValidateSettings validates the settings configuration, including the API key
// in the environment
func ValidateSettings(settings *Settings) error {
	deployment, err := openai.ParseDeployment(settings.LLM.Deployment)
	if err != nil {
		return errors.Wrapf(ErrUnsupportedDeployment, "%s (must be 'direct' or 'azure')", settings.LLM.Deployment)
	}

	if strings.TrimSpace(settings.LLM.Model) == "" {
		return errors.New("LLM model is required")
	}

	if env := APIKeyEnv(deployment); os.Getenv(env) == "" {
		return errors.Errorf("API key is required (set %s environment variable)", env)
	}

	if deployment == openai.DeploymentAzure && settings.LLM.ChatURL == "" {
		return errors.New("chat_url is required for azure deployments")
	}

	if settings.LLM.TimeoutSeconds <= 0 {
		return errors.New("timeout_seconds must be positive")
	}

	return nil
}

// ClientConfig converts settings into a transport configuration
func (s *Settings) ClientConfig() (openai.Config, error) {
	deployment, err := openai.ParseDeployment(s.LLM.Deployment)
	if err != nil {
		return openai.Config{}, errors.Wrapf(ErrUnsupportedDeployment, "%s", s.LLM.Deployment)
	}
	return openai.Config{
		Deployment: deployment,
		APIKey:     os.Getenv(APIKeyEnv(deployment)),
		BaseURL:    s.LLM.BaseURL,
		ChatURL:    s.LLM.ChatURL,
		Timeout:    time.Duration(s.LLM.TimeoutSeconds) * time.Second,
	}, nil
}

// createDefaultSettingsFile creates a default settings file in ~/.gptchat/
func createDefaultSettingsFile() (*Settings, error) {
	settingsPath, err := infra.HomeSettingsPath()
	if err != nil {
		return GetDefaultSettings(), nil
	}
	return createSettingsFileAtPath(settingsPath)
}

// createSettingsFileAtPath writes default settings to settingsPath
func createSettingsFileAtPath(settingsPath string) (*Settings, error) {
	settings := NewSettingsWithPath(settingsPath)

	if err := settings.Save(); err != nil {
		// Return defaults without repository if saving fails
		settingsLogger.WarnWithIntention(pkgLogger.IntentionWarning, "Could not write default settings", "path", settingsPath, "error", err)
		return GetDefaultSettings(), nil
	}

	settingsLogger.InfoWithIntention(pkgLogger.IntentionConfig, "Created default settings file", "path", settingsPath)
	settingsLogger.InfoWithIntention(pkgLogger.IntentionStatus, "You can edit this file to customize your configuration")
	return settings, nil
}
