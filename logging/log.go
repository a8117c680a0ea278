package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// A Level is a logging priority. Higher levels are more important.
type Level int8

// Logging levels (matching zap core internals).
const (
	// DebugLevel logs are typically voluminous, and are usually disabled in
	// production.
	DebugLevel Level = -1
	// InfoLevel is the default logging priority.
	InfoLevel Level = 0
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel Level = 1
	// ErrorLevel logs are high-priority. If an application is running smoothly,
	// it shouldn't generate any error-level logs.
	ErrorLevel Level = 2
	// PanicLevel logs a message, then panics.
	PanicLevel Level = 4
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel Level = 5
)

// ParseLevel parse a log level from a string.
func ParseLevel(l string) (Level, error) {
	switch strings.ToLower(l) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warning", "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "panic":
		return PanicLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return Level(100), fmt.Errorf("log level \"%s\" is not supported", l)
	}
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Info"
	case WarnLevel:
		return "Warning"
	case ErrorLevel:
		return "Error"
	case PanicLevel:
		return "Panic"
	case FatalLevel:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// UnmarshalText lets a level be written as a string in config files.
func (l *Level) UnmarshalText(text []byte) error {
	lvl, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// ZapLevel returns the zap counterpart of the level.
func (l *Level) ZapLevel() zapcore.Level {
	return zapcore.Level(*l)
}

type Logger struct {
	*zap.Logger
	config *zap.Config
	name   string
}

func (log *Logger) Clone() *Logger {
	newConfig := cloneConfig(log.config)
	newLogger, err := newConfig.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{
		Logger: newLogger,
		config: newConfig,
		name:   log.name,
	}
}

func (log *Logger) GetLevel() Level {
	return (Level)(log.config.Level.Level())
}

// IsDebug reports whether debug lines are written, guard expensive debug
// fields with it.
func (log *Logger) IsDebug() bool {
	return log.config.Level.Enabled(zapcore.DebugLevel)
}

func (log *Logger) GetLevelString() string {
	return log.config.Level.String()
}

func (log *Logger) GetName() string {
	return log.name
}

// Named returns a child logger. Names are joined with a dot, so a
// "workergroup" logger asking for "gateway" yields "workergroup.gateway".
func (log *Logger) Named(name string) *Logger {
	c := log.Clone()
	newName := ""
	if log.name == "" {
		newName = name
	} else {
		newName = fmt.Sprintf("%s.%s", log.name, name)
	}
	return &Logger{
		Logger: c.Logger.Named(newName),
		config: c.config,
		name:   newName,
	}
}

func New(core *zapcore.Core, cfg *zap.Config) *Logger {
	logger := Logger{
		Logger: zap.New(*core),
		config: cfg,
		name:   "",
	}
	return &logger
}

func (log *Logger) SetLevel(level Level) {
	lvl := (zapcore.Level)(level)
	if log.config.Level.Level() == lvl {
		return
	}
	log.config.Level.SetLevel(lvl)
}

func (log *Logger) With(fields ...zap.Field) *Logger {
	c := log.Clone()
	return &Logger{
		Logger: c.Logger.With(fields...),
		config: c.config,
		name:   c.name,
	}
}

// AtExit flushes the logs before exiting the process. Useful when an
// app shuts down so we store all logging possible. This is meant to be used
// with defer when initializing your logger.
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}

func cloneConfig(cfg *zap.Config) *zap.Config {
	c := zap.Config{
		Level:             zap.NewAtomicLevelAt(cfg.Level.Level()),
		Development:       cfg.Development,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Sampling:          nil,
		Encoding:          cfg.Encoding,
		EncoderConfig:     cfg.EncoderConfig,
		OutputPaths:       append([]string{}, cfg.OutputPaths...),
		ErrorOutputPaths:  append([]string{}, cfg.ErrorOutputPaths...),
		InitialFields:     make(map[string]interface{}),
	}
	for k, v := range cfg.InitialFields {
		c.InitialFields[k] = v
	}
	if cfg.Sampling != nil {
		c.Sampling = &zap.SamplingConfig{
			Initial:    cfg.Sampling.Initial,
			Thereafter: cfg.Sampling.Thereafter,
		}
	}
	return &c
}

func newLoggerFromZapConfig(config zap.Config) *Logger {
	encoder := zapcore.NewConsoleEncoder(config.EncoderConfig)
	if config.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(config.EncoderConfig)
	}
	sink, _, err := zap.Open(config.OutputPaths...)
	if err != nil {
		panic(err)
	}
	core := zapcore.NewCore(encoder, sink, config.Level)
	return New(&core, &config)
}

func devConfig() zap.Config {
	/*
		Choices: (with "*" for default)
		CallerEncoder: full*
		DurationEncoder: nanos, seconds*, string
		LevelEncoder: capital, capitalColor, color, lowercase*
		NameEncoder: full*
		TimeEncoder: epoch*, iso8601, millis, nanos
	*/
	encoderConfig := zapcore.EncoderConfig{
		CallerKey:      "C",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		LevelKey:       "L",
		LineEnding:     "\n",
		MessageKey:     "M",
		NameKey:        "N",
		TimeKey:        "T",
	}
	return zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.Level(DebugLevel)),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func prodConfig() zap.Config {
	encoderConfig := zapcore.EncoderConfig{
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		LevelKey:       "level",
		LineEnding:     "\n",
		MessageKey:     "message",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		TimeKey:        "@timestamp",
	}
	return zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.Level(InfoLevel)),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// NewDevLogger creates a console logger at debug level.
func NewDevLogger() *Logger {
	return newLoggerFromZapConfig(devConfig())
}

// NewProdLogger creates a json logger at info level.
func NewProdLogger() *Logger {
	return newLoggerFromZapConfig(prodConfig())
}

// NewTestLogger is the logger handed to engines under test.
func NewTestLogger() *Logger {
	cfg := devConfig()
	cfg.OutputPaths = []string{"stderr"}
	return newLoggerFromZapConfig(cfg)
}

// NewLoggerFromConfig builds a logger from the package configuration.
func NewLoggerFromConfig(c Config) *Logger {
	var cfg zap.Config
	if c.Environment == "dev" {
		cfg = devConfig()
	} else {
		cfg = prodConfig()
	}
	if len(c.File.Path) > 0 {
		path, err := rotatingFilePath(c.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unable to set up log file, logging to stdout only: %v\n", err)
		} else {
			cfg.OutputPaths = append(cfg.OutputPaths, path)
		}
	}
	log := newLoggerFromZapConfig(cfg)
	log.SetLevel(c.Level)
	return log
}

// Errorf implement badger interface.
func (log *Logger) Errorf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Errorf(strings.TrimSpace(s), args...)
}

// Warningf implement badger interface.
func (log *Logger) Warningf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Warnf(strings.TrimSpace(s), args...)
}

// Infof implement badger interface.
func (log *Logger) Infof(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Infof(strings.TrimSpace(s), args...)
}

// Debugf implement badger interface.
func (log *Logger) Debugf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Debugf(strings.TrimSpace(s), args...)
}
