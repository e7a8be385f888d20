// Package logging routes the standard logger to stderr and, optionally, to a
// size-rotated log file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/unklstewy/flightpath/pkg/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points the standard logger at stderr plus the rotating file named in
// cfg.File. With no file configured only stderr is used.
// The returned closer flushes and closes the file; it is never nil.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	w, closer, err := newWriter(cfg, os.Stderr)
	if err != nil {
		return nopCloser{}, err
	}
	log.SetOutput(w)
	return closer, nil
}

// newWriter builds the log destination writing to console and the optional file.
func newWriter(cfg config.LoggingConfig, console io.Writer) (io.Writer, io.Closer, error) {
	if cfg.File == "" {
		return console, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, err
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return io.MultiWriter(console, file), file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
