package simplyrestful

import (
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/rs/zerolog"
)

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps logger.
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// Debug logs a debug message.
func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

// Info logs an info message.
func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

// Warn logs a warning message.
func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

// Error logs an error message.
func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

// HCLogLogger adapts an hclog.Logger to Logger.
type HCLogLogger struct {
	logger hclog.Logger
}

// NewHCLogLogger wraps logger. A nil logger discards everything.
func NewHCLogLogger(logger hclog.Logger) *HCLogLogger {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &HCLogLogger{logger: logger}
}

// Debug logs a debug message.
func (l *HCLogLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, keyValues(fields)...)
}

// Info logs an info message.
func (l *HCLogLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, keyValues(fields)...)
}

// Warn logs a warning message.
func (l *HCLogLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, keyValues(fields)...)
}

// Error logs an error message.
func (l *HCLogLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, keyValues(fields)...)
}

// keyValues flattens fields into sorted key/value pairs.
func keyValues(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}

	return args
}
