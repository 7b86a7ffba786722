// Package logging creates the leveled, prefixed loggers used by each component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

const header = "${time_rfc3339} ${level} [${prefix}]"

var (
	mu      sync.Mutex
	level   = log.INFO
	output  io.Writer = os.Stderr
	loggers []*log.Logger
)

// ParseLevel maps a level name (debug, info, warn, error, off) to a gommon level.
func ParseLevel(name string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("unknown log level %q", name)
}

// SetLevel sets the level of every logger, including ones created earlier.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
	return nil
}

// SetOutput redirects every logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

// New returns a logger tagged with prefix, e.g. logging.New("acquire").
func New(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	l := log.New(prefix)
	l.SetHeader(header)
	l.SetLevel(level)
	l.SetOutput(output)
	loggers = append(loggers, l)
	return l
}
