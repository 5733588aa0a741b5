package repository

// SettingsRepository abstracts where settings.yaml lives and how it is read
type SettingsRepository interface {
	Load() ([]byte, error)
	Save(data []byte) error
	// FindSettingsFile returns "" without error when no file exists
	FindSettingsFile() (string, error)
	// Location is the path Save writes to, or "" for non-file repositories
	Location() string
}
