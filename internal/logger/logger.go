// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The site writes lifecycle, query-failure, and email-dispatch events to one
// JSON log per day under `<root>/logs/YYYY-MM-DD.log`.  When running in an
// interactive TTY the same events are teed, colorized, to stdout.  Rotation,
// compression, and retention are handled by Lumberjack, so no external
// log-rotate job is required.
//
// Usage
// -----
//
//	log, err := logger.New(cfg.Paths.Root, runningInTTY())
//	if err != nil { … }
//	log.Warnw("post query failed", "err", err)
//
// Notes
// -----
// • The Zap core uses ISO-8601 timestamps and lowercase levels.
// • AVERY_LOG_LEVEL=debug lowers the threshold; anything else means info.
// • The logger is installed globally, so zap.S() works after startup.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a *zap.SugaredLogger that writes JSON to logs/YYYY-MM-DD.log.
// When tee == true a console core is attached as well.  The logger becomes
// the process-wide default via zap.ReplaceGlobals.
func New(rootDir string, tee bool) (*zap.SugaredLogger, error) {
	logDir := filepath.Join(rootDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, fileName),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	level := zap.InfoLevel
	if os.Getenv("AVERY_LOG_LEVEL") == "debug" {
		level = zap.DebugLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), level),
	}
	if tee {
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "tee", tee, "level", level.String())
	return z, nil
}
