package ckptmgr

import (
	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "ckptmgr"

type Config struct {
	Level encoding.LogLevel `long:"log-level" description:" "`
	// CacheSize is the number of recently saved states kept in memory to
	// answer restores without reading storage.
	CacheSize int    `long:"cache-size" description:"instance states kept in memory, 0 disables the cache"`
	Listen    string `long:"listen" description:"address the checkpoint manager listens on"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:     encoding.LogLevel{Level: logging.InfoLevel},
		CacheSize: 256,
		Listen:    "tcp://127.0.0.1:7400",
	}
}
