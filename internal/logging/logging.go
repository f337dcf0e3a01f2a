// Package logging bootstraps the zap loggers of the process. All log output
// goes to stderr; stdout is reserved for snapshot data.
package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines the logging configuration loadable from the config file.
type Config struct {
	Level string `yaml:"level" default:"info"`
}

// Validate checks the configuration on startup.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.Level)
	}

	return nil
}

// Logging fans out named loggers sharing one core.
type Logging struct {
	logger *zap.SugaredLogger
}

// NewLogging builds the root logger for the given component name and level.
func NewLogging(name, level string) (*Logging, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), lvl)

	return &Logging{logger: zap.New(core).Named(name).Sugar()}, nil
}

// GetLogger returns the root logger.
func (l *Logging) GetLogger() *zap.SugaredLogger {
	return l.logger
}

// GetChildLogger returns a logger named after the given subcomponent.
func (l *Logging) GetChildLogger(name string) *zap.SugaredLogger {
	return l.logger.Named(name)
}
