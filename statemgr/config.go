package statemgr

import (
	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const (
	namedLogger       = "statemgr"
	badgerNamedLogger = "badger"
)

type Config struct {
	Level encoding.LogLevel `long:"log-level" description:" "`
	// Dir holds the badger files, relative to the home directory. An empty
	// Dir keeps the state in memory only.
	Dir              string            `long:"dir" description:"state store directory, empty for an in-memory store"`
	SyncWrites       encoding.Bool     `long:"sync-writes" description:"fsync every write"`
	ValueLogFileSize encoding.ByteSize `long:"value-log-file-size" description:" "`
}

func NewDefaultConfig() Config {
	return Config{
		Level:            encoding.LogLevel{Level: logging.InfoLevel},
		Dir:              "state",
		SyncWrites:       true,
		ValueLogFileSize: encoding.ByteSize{Bytes: 64 << 20},
	}
}
