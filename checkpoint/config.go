package checkpoint

import (
	"time"

	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "checkpoint"

type Config struct {
	Level    encoding.LogLevel `long:"log-level" description:" "`
	Interval encoding.Duration `long:"interval" description:"time between two checkpoints of the topology"`
	// SaveTimeout bounds the write of a new consistent record.
	SaveTimeout encoding.Duration `long:"save-timeout" description:" "`
}

func NewDefaultConfig() Config {
	return Config{
		Level:       encoding.LogLevel{Level: logging.InfoLevel},
		Interval:    encoding.Duration{Duration: 30 * time.Second},
		SaveTimeout: encoding.Duration{Duration: 5 * time.Second},
	}
}
