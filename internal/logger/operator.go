package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// messageOnlyCore wraps a zapcore.Core and drops structured fields,
// so every entry renders as its message alone.
type messageOnlyCore struct {
	zapcore.Core
}

// With ignores the fields and keeps the core unchanged.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *messageOnlyCore) With([]zapcore.Field) zapcore.Core {
	return c
}

// Check adds the core to a checked entry if the log entry level is enabled for logging.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *messageOnlyCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// Write forwards the entry without its fields.
//
//nolint:gocritic // Signature is defined by zapcore.Core.
func (c *messageOnlyCore) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	return c.Core.Write(ent, nil)
}

// NewOperator creates the logger for operator-facing progress output.
// Lines read "[hh:mm:ss] <message>": no level, no logger name, no fields.
func NewOperator(level zapcore.LevelEnabler, w io.Writer) *zap.SugaredLogger {
	if level == nil {
		level = defaultLevel
	}

	//nolint:exhaustruct // Only time and message are printed.
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       encodeBracketedTime,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)

	return zap.New(&messageOnlyCore{Core: core}).Sugar()
}
