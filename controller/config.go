package controller

import (
	"time"

	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"
)

const namedLogger = "controller"

type Config struct {
	Level  encoding.LogLevel `long:"log-level" description:" "`
	Listen string            `long:"listen" description:"address the controller listens on"`
	// PlanFile is the JSON physical plan of the topology, relative to the
	// home directory. Worker group addresses are filled in as they join.
	PlanFile string `long:"plan-file" description:"physical plan of the topology"`
	// IgnorePreviousState starts the first run from scratch even when a
	// consistent checkpoint exists.
	IgnorePreviousState encoding.Bool     `long:"ignore-previous-state" description:"start from an empty state"`
	TickInterval        encoding.Duration `long:"tick-interval" description:"how often the checkpoint schedule is looked at"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:        encoding.LogLevel{Level: logging.InfoLevel},
		Listen:       "tcp://127.0.0.1:7300",
		PlanFile:     "plan.json",
		TickInterval: encoding.Duration{Duration: time.Second},
	}
}
