package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields type alias for logrus.Fields
type Fields = logrus.Fields

var globalLogger *logrus.Logger

func init() {
	globalLogger = newLogger()
}

func newLogger() *logrus.Logger {
	logger := logrus.New()

	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}
	if lvl, err := logrus.ParseLevel(strings.ToLower(levelStr)); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	}

	// LOG_FILE enables rotated file output alongside stdout
	if path := os.Getenv("LOG_FILE"); path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}

	return logger
}

// GetLogger returns the process-wide logger
func GetLogger() *logrus.Logger {
	return globalLogger
}

// SetOutput redirects the global logger (used by tests)
func SetOutput(w io.Writer) {
	globalLogger.SetOutput(w)
}

// WithComponent tags a log entry with the originating component
func WithComponent(component string) *logrus.Entry {
	return globalLogger.WithField("component", component)
}

// WithFields attaches structured fields to a log entry
func WithFields(fields Fields) *logrus.Entry {
	return globalLogger.WithFields(fields)
}
