package logs

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chunkflow/chunkflow/config"
)

var Output *os.File

// InitializeFileLogger creates ~/.chunkflow/logs.txt and makes it the log output.
func InitializeFileLogger() error {
	path := filepath.Join(config.CacheDir, "logs.txt")
	if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
		return errors.Wrap(err, "couldn't create ~/.chunkflow home directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "couldn't create logs file")
	}
	Output = f
	return nil
}

func CloseLogger() {
	if Output != nil {
		Output.Close()
		Output = nil
	}
}

// New builds a logger writing to out, or to the file logger / stderr when out is nil.
func New(cfg config.LoggingConfig, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stderr
		if Output != nil {
			out = Output
		}
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), errors.Wrapf(err, "invalid log level %s", cfg.Level)
		}
		level = parsed
	}

	switch strings.ToLower(cfg.Format) {
	case "", "console", "pretty":
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    out != os.Stderr,
			TimeFormat: time.Kitchen,
		}
	case "json":
	default:
		return zerolog.Nop(), errors.Errorf("log format must be console or json, got %s", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
