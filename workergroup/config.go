package workergroup

import (
	"time"

	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "workergroup"

type Config struct {
	Level encoding.LogLevel `long:"log-level" description:" "`

	ID       string `long:"id" description:"name of this worker group in the physical plan"`
	Topology string `long:"topology" description:"topology the worker group belongs to"`
	RunID    string `long:"run-id" description:"run of the topology, checked by the checkpoint manager"`

	Listen            string `long:"listen" description:"address the worker group listens on"`
	Controller        string `long:"controller" description:"address of the controller"`
	CheckpointManager string `long:"checkpoint-manager" description:"address of the checkpoint manager"`

	SpoutInterval encoding.Duration `long:"spout-interval" description:"how often local spouts are asked for a tuple"`
	// RegisterRetryInterval is the wait before registering again after the
	// checkpoint manager refused the session.
	RegisterRetryInterval encoding.Duration `long:"register-retry-interval" description:" "`
	// TaskRestartDelay is how long a task that failed to load its state stays
	// down before it is rebuilt.
	TaskRestartDelay encoding.Duration `long:"task-restart-delay" description:" "`
}

func NewDefaultConfig() Config {
	return Config{
		Level:                 encoding.LogLevel{Level: logging.InfoLevel},
		ID:                    "wg-1",
		Topology:              "word-count",
		RunID:                 "run-1",
		Listen:                "tcp://127.0.0.1:7500",
		Controller:            "tcp://127.0.0.1:7300",
		CheckpointManager:     "tcp://127.0.0.1:7400",
		SpoutInterval:         encoding.Duration{Duration: 100 * time.Millisecond},
		RegisterRetryInterval: encoding.Duration{Duration: time.Second},
		TaskRestartDelay:      encoding.Duration{Duration: time.Second},
	}
}
