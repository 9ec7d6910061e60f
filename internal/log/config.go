package log

// Config controls the process logger.
type Config struct {
	Level  string     `mapstructure:"level" yaml:"level"`
	Format string     `mapstructure:"format" yaml:"format"` // text | json
	File   FileConfig `mapstructure:"file" yaml:"file"`
}

// FileConfig enables rotated file output in addition to stdout.
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DefaultConfig returns the configuration used when the config file has
// no log section: info-level text logging to stdout.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
	}
}
