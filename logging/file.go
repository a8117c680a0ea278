package logging

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

const rotatingScheme = "rotating"

var (
	registerSinkOnce sync.Once
	registerSinkErr  error

	sinksMu sync.Mutex
	// one rotating writer per file, shared by every named clone.
	sinks = map[string]*rotatingSink{}
)

type rotatingSink struct {
	*lumberjack.Logger
}

func (s *rotatingSink) Sync() error {
	return nil
}

// Close is a no-op as the writer is shared by every logger cloned from the
// same configuration.
func (s *rotatingSink) Close() error {
	return nil
}

func openRotatingSink(u *url.URL) (zap.Sink, error) {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	if s, ok := sinks[u.Path]; ok {
		return s, nil
	}
	q := u.Query()
	s := &rotatingSink{
		Logger: &lumberjack.Logger{
			Filename:   u.Path,
			MaxSize:    atoi(q.Get("size")),
			MaxBackups: atoi(q.Get("backups")),
			MaxAge:     atoi(q.Get("age")),
			Compress:   q.Get("compress") == "true",
		},
	}
	sinks[u.Path] = s
	return s, nil
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

// rotatingFilePath registers the rotating sink with zap and returns the
// output path to add to a zap configuration.
func rotatingFilePath(c FileConfig) (string, error) {
	registerSinkOnce.Do(func() {
		registerSinkErr = zap.RegisterSink(rotatingScheme, openRotatingSink)
	})
	if registerSinkErr != nil {
		return "", registerSinkErr
	}
	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme: rotatingScheme,
		Path:   filepath.ToSlash(abs),
		RawQuery: url.Values{
			"size":     []string{strconv.Itoa(c.MaxSizeMB)},
			"backups":  []string{strconv.Itoa(c.MaxBackups)},
			"age":      []string{strconv.Itoa(c.MaxAgeDays)},
			"compress": []string{fmt.Sprintf("%t", c.Compress)},
		}.Encode(),
	}
	return u.String(), nil
}
