package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log   *logrus.Logger
	entry *logrus.Entry
)

// Init configures the process logger. Every line carries the run_id of this invocation.
func Init(level, filePath string, maxSize, maxAge int, compress bool) error {
	log = logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	writers := []io.Writer{os.Stdout}

	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    maxSize, // MB
			MaxAge:     maxAge,  // days
			MaxBackups: 10,
			Compress:   compress,
		})
	}

	log.SetOutput(io.MultiWriter(writers...))
	entry = log.WithField("run_id", uuid.NewString())

	return nil
}

// GetLogger returns the underlying logger, falling back to an info-level stdout logger.
func GetLogger() *logrus.Logger {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		log.SetOutput(os.Stdout)
	}
	return log
}

// Entry returns the run-scoped entry used by the package helpers.
func Entry() *logrus.Entry {
	if entry == nil {
		entry = logrus.NewEntry(GetLogger())
	}
	return entry
}

// IsDebug reports whether debug logging is on.
func IsDebug() bool {
	return GetLogger().IsLevelEnabled(logrus.DebugLevel)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Entry().WithField(key, value)
}

func WithError(err error) *logrus.Entry {
	return Entry().WithError(err)
}

func Debugf(format string, args ...interface{}) {
	Entry().Debugf(format, args...)
}

func Info(args ...interface{}) {
	Entry().Info(args...)
}

func Infof(format string, args ...interface{}) {
	Entry().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Entry().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Entry().Errorf(format, args...)
}

// Fatalf logs and exits with status 1.
func Fatalf(format string, args ...interface{}) {
	Entry().Fatalf(format, args...)
}
