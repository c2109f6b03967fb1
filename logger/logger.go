package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// Logger is the process-wide instance; nil until InitLogger runs, in
	// which case the helpers fall back to logrus's standard logger (stderr).
	Logger *logrus.Logger

	errorLogger *logrus.Logger
)

// LogConfig configures log destinations and level.
type LogConfig struct {
	ErrorLogPath string
	InfoLogPath  string
	LogLevel     string
}

type textFormatter struct{}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("15:04:05 MST 2006/01/02")
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	return []byte(fmt.Sprintf("[%s] [%s] (%s) %s\n",
		timestamp, level, getCaller(), entry.Message)), nil
}

func getCaller() string {
	for i := 2; i < 20; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen") ||
			strings.Contains(file, "logger/logger.go") {
			continue
		}
		funcName := runtime.FuncForPC(pc).Name()
		return fmt.Sprintf("%s:%s:%d", filepath.Base(file), funcName, line)
	}
	return "unknown:unknown:0"
}

func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// InitLogger wires the process loggers. Unwritable log files fall back to
// the std streams.
func InitLogger(config LogConfig) error {
	formatter := &textFormatter{}

	Logger = logrus.New()
	Logger.SetFormatter(formatter)
	Logger.SetLevel(parseLogLevel(config.LogLevel))
	if config.InfoLogPath != "" {
		if f, err := openLogFile(config.InfoLogPath); err == nil {
			Logger.SetOutput(io.MultiWriter(os.Stdout, f))
		} else {
			Logger.SetOutput(os.Stdout)
			Logger.Warnf("open info log %s failed, using stdout: %v", config.InfoLogPath, err)
		}
	} else {
		Logger.SetOutput(os.Stdout)
	}

	errorLogger = logrus.New()
	errorLogger.SetFormatter(formatter)
	errorLogger.SetLevel(parseLogLevel(config.LogLevel))
	if config.ErrorLogPath != "" {
		if f, err := openLogFile(config.ErrorLogPath); err == nil {
			errorLogger.SetOutput(io.MultiWriter(os.Stderr, f))
		} else {
			errorLogger.SetOutput(os.Stderr)
			errorLogger.Warnf("open error log %s failed, using stderr: %v", config.ErrorLogPath, err)
		}
	} else {
		errorLogger.SetOutput(os.Stderr)
	}
	return nil
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

func std() *logrus.Logger {
	if Logger != nil {
		return Logger
	}
	return logrus.StandardLogger()
}

func errStd() *logrus.Logger {
	if errorLogger != nil {
		return errorLogger
	}
	return std()
}

func Info(args ...interface{}) { std().Info(args...) }

func Infof(format string, args ...interface{}) { std().Infof(format, args...) }

func Debug(args ...interface{}) { std().Debug(args...) }

func Debugf(format string, args ...interface{}) { std().Debugf(format, args...) }

func Warn(args ...interface{}) { std().Warn(args...) }

func Warnf(format string, args ...interface{}) { std().Warnf(format, args...) }

func Error(args ...interface{}) { errStd().Error(args...) }

func Errorf(format string, args ...interface{}) { errStd().Errorf(format, args...) }

func Fatalf(format string, args ...interface{}) { errStd().Fatalf(format, args...) }
