// Package logger provides the process-wide zap logger
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is a no-op logger until Init is called.
var Logger = zap.NewNop()

// Init builds Logger for the given level.
// When file is not empty, output is also written to a daily rotated file next to it.
func Init(level, file string) error {
	l, err := New(level, file, os.Getenv("LOG_DEV") == "1")
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// New builds a logger without touching the package-level Logger
func New(level, file string, dev bool) (*zap.Logger, error) {
	lvl := levelFromString(level)
	if dev {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	var out io.Writer = os.Stdout
	if file != "" {
		rotated, err := rotatelogs.New(
			file+".%Y%m%d",
			rotatelogs.WithLinkName(file),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(7*24*time.Hour),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", filepath.Base(file), err)
		}
		out = io.MultiWriter(os.Stdout, rotated)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(out), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Logger.Sync()
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
