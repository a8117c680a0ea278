package barrier

import (
	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "gateway"

type Config struct {
	Level          encoding.LogLevel `long:"log-level" description:" "`
	DrainThreshold encoding.ByteSize `long:"drain-threshold" description:"buffered bytes above which in-flight alignments are abandoned"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:          encoding.LogLevel{Level: logging.InfoLevel},
		DrainThreshold: encoding.ByteSize{Bytes: 100 << 20},
	}
}
