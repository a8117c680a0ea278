package logging

// Config contains the configurable items for this package.
type Config struct {
	Environment string     `long:"environment" choice:"dev" choice:"prod" description:"Logger flavour, dev is human readable"`
	Level       Level      `long:"level" description:"Logging level (default: info)"`
	File        FileConfig `group:"File" namespace:"file"`
}

// FileConfig enables an additional rotating log file next to stdout.
type FileConfig struct {
	Path       string `long:"path" description:"Absolute path of the log file, empty disables file logging"`
	MaxSizeMB  int    `long:"max-size-mb" description:"Size in megabytes a log file may reach before it is rotated"`
	MaxBackups int    `long:"max-backups" description:"Number of rotated files to keep"`
	MaxAgeDays int    `long:"max-age-days" description:"Days to keep rotated files"`
	Compress   bool   `long:"compress" description:"Gzip rotated files"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Environment: "prod",
		Level:       InfoLevel,
		File: FileConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 7,
		},
	}
}
