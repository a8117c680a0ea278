package metrics

import (
	"time"

	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

type Config struct {
	Level   encoding.LogLevel `long:"log-level" description:" "`
	Timeout encoding.Duration `long:"timeout" description:"shutdown timeout of the metrics server"`
	Port    int               `long:"port" description:"expose metrics on port <port>"`
	Path    string            `long:"path" description:" "`
	Enabled encoding.Bool     `long:"enabled" description:" "`
}

func NewDefaultConfig() Config {
	return Config{
		Level:   encoding.LogLevel{Level: logging.InfoLevel},
		Timeout: encoding.Duration{Duration: 5 * time.Second},
		Port:    2112,
		Path:    "/metrics",
		Enabled: false,
	}
}
