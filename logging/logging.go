package logging

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// TraceLevel indicates a log message's level of criticality
	TraceLevel = iota
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

// verbosity at or below which logr messages are emitted for each level
var levelVerbosity = map[int]int{
	TraceLevel: 6,
	DebugLevel: 4,
	InfoLevel:  0,
}

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// LogLevelFromVerbosity translates a logr verbosity (as passed to -v) to a log level enum
func LogLevelFromVerbosity(v int) int {
	switch {
	case v >= levelVerbosity[TraceLevel]:
		return TraceLevel
	case v >= levelVerbosity[DebugLevel]:
		return DebugLevel
	default:
		return InfoLevel
	}
}

// zapLevel maps a log level enum to a zap level. logr verbosity V(n) is logged at zap level -n,
// so Trace and Debug open up the corresponding range of verbosities.
func zapLevel(level int) zapcore.Level {
	switch level {
	case TraceLevel, DebugLevel:
		return zapcore.Level(-levelVerbosity[level])
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a structured logger writing console-encoded entries at or above level to w.
// A nil writer logs to stderr.
func New(level int, w io.Writer) logr.Logger {
	if w == nil {
		w = os.Stderr
	}
	encoderConf := zap.NewDevelopmentEncoderConfig()
	encoderConf.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConf),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapLevel(level)),
	)
	return zapr.NewLogger(zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)))
}
