package restore

import (
	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "restore"

type Config struct {
	Level encoding.LogLevel `long:"log-level" description:" "`
}

func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
	}
}
