package storage

import (
	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "storage"

// Backend types.
const (
	TypeLocalFS = "localfs"
	TypeLevelDB = "leveldb"
)

type Config struct {
	Level encoding.LogLevel `long:"log-level" description:" "`
	Type  string            `long:"type" choice:"localfs" choice:"leveldb" description:"backend the checkpoint manager stores instance states in"`
	// Root is the directory checkpoints are written under. Relative paths
	// are resolved against the home directory.
	Root string `long:"root" description:"checkpoint root directory"`
}

func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Type:  TypeLocalFS,
		Root:  "checkpoints",
	}
}
