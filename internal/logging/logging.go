// Package logging builds the zap logger shared by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects logger sinks.
type Options struct {
	// Debug lowers the console level from warn to debug.
	Debug bool
	// Level applies to the file sink: debug, info, warn or error.
	Level string
	// File, when set, receives JSON lines rotated by lumberjack.
	File string
	// Console defaults to os.Stderr.
	Console io.Writer
}

// New returns a logger writing human-readable lines to the console and,
// optionally, JSON to a rotated file. Call Sync before exit.
func New(opt Options) (*zap.Logger, error) {
	console := opt.Console
	if console == nil {
		console = os.Stderr
	}
	consoleLevel := zapcore.WarnLevel
	if opt.Debug {
		consoleLevel = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(console), consoleLevel),
	}

	if opt.File != "" {
		fileLevel := zapcore.InfoLevel
		if opt.Level != "" {
			if err := fileLevel.Set(opt.Level); err != nil {
				return nil, fmt.Errorf("log level: %w", err)
			}
		}
		if opt.Debug {
			fileLevel = zapcore.DebugLevel
		}
		rot := &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rot),
			fileLevel,
		))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// Nop is used when no logger has been configured.
func Nop() *zap.Logger { return zap.NewNop() }
