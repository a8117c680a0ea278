package transport

import (
	"time"

	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "transport"

type Config struct {
	Level encoding.LogLevel `long:"log-level" description:" "`
	// DialRetryInterval is the fixed wait between two failed dials.
	DialRetryInterval encoding.Duration `long:"dial-retry-interval" description:" "`
	// ReconnectInterval is how long the socket waits before redialing a
	// connection that went down.
	ReconnectInterval encoding.Duration `long:"reconnect-interval" description:" "`
	SendTimeout       encoding.Duration `long:"send-timeout" description:"messages that cannot be sent within this time are dropped"`
	SendQueueLen      int               `long:"send-queue-len" description:"messages queued per remote before new ones are dropped"`
	MaxMessageSize    encoding.ByteSize `long:"max-message-size" description:" "`
}

func NewDefaultConfig() Config {
	return Config{
		Level:             encoding.LogLevel{Level: logging.InfoLevel},
		DialRetryInterval: encoding.Duration{Duration: time.Second},
		ReconnectInterval: encoding.Duration{Duration: 100 * time.Millisecond},
		SendTimeout:       encoding.Duration{Duration: 5 * time.Second},
		SendQueueLen:      1024,
		MaxMessageSize:    encoding.ByteSize{Bytes: 256 << 20},
	}
}
