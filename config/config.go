//lint:file-ignore SA5008 duplicated struct tags are ok for config

package config

import (
	"bytes"
	"errors"
	"path/filepath"

	"github.com/stratastream/stateful/barrier"
	"github.com/stratastream/stateful/checkpoint"
	"github.com/stratastream/stateful/ckptmgr"
	"github.com/stratastream/stateful/controller"
	"github.com/stratastream/stateful/libs/fs"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/restore"
	"github.com/stratastream/stateful/restorer"
	"github.com/stratastream/stateful/statemgr"
	"github.com/stratastream/stateful/storage"
	"github.com/stratastream/stateful/transport"
	"github.com/stratastream/stateful/workergroup"

	"github.com/BurntSushi/toml"
)

const configFileName = "config.toml"

var ErrConfigExists = errors.New("configuration file already exists")

// Config ties together all other application configuration types.
type Config struct {
	Logging           logging.Config     `group:"Logging" namespace:"logging"`
	Metrics           metrics.Config     `group:"Metrics" namespace:"metrics"`
	Transport         transport.Config   `group:"Transport" namespace:"transport"`
	Gateway           barrier.Config     `group:"Gateway" namespace:"gateway"`
	Checkpoint        checkpoint.Config  `group:"Checkpoint" namespace:"checkpoint"`
	Restore           restore.Config     `group:"Restore" namespace:"restore"`
	Restorer          restorer.Config    `group:"Restorer" namespace:"restorer"`
	Storage           storage.Config     `group:"Storage" namespace:"storage"`
	StateManager      statemgr.Config    `group:"StateManager" namespace:"statemgr"`
	CheckpointManager ckptmgr.Config     `group:"CheckpointManager" namespace:"ckptmgr"`
	Controller        controller.Config  `group:"Controller" namespace:"controller"`
	WorkerGroup       workergroup.Config `group:"WorkerGroup" namespace:"workergroup"`
}

// NewDefaultConfig returns the default configuration of every package.
func NewDefaultConfig() Config {
	return Config{
		Logging:           logging.NewDefaultConfig(),
		Metrics:           metrics.NewDefaultConfig(),
		Transport:         transport.NewDefaultConfig(),
		Gateway:           barrier.NewDefaultConfig(),
		Checkpoint:        checkpoint.NewDefaultConfig(),
		Restore:           restore.NewDefaultConfig(),
		Restorer:          restorer.NewDefaultConfig(),
		Storage:           storage.NewDefaultConfig(),
		StateManager:      statemgr.NewDefaultConfig(),
		CheckpointManager: ckptmgr.NewDefaultConfig(),
		Controller:        controller.NewDefaultConfig(),
		WorkerGroup:       workergroup.NewDefaultConfig(),
	}
}

// Path returns where the configuration of home lives.
func Path(home string) string {
	return filepath.Join(home, configFileName)
}

// Read loads the configuration file of home over the defaults.
func Read(home string) (*Config, error) {
	buf, err := fs.ReadFile(Path(home))
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write saves cfg in home. An existing file is only replaced with overwrite.
func Write(home string, cfg Config, overwrite bool) error {
	path := Path(home)
	exists, err := fs.FileExists(path)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		return ErrConfigExists
	}
	if err := fs.EnsureDir(home); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return fs.WriteFile(path, buf.Bytes())
}
