// Package logging provides the logging facade for the application.
// It installs a custom implementation of dragonboat's logger.ILogger so that
// all packages (including dragonboat's own) log through one format and one
// level configuration.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// finchLogger implements the ILogger interface with custom formatting
type finchLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *finchLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *finchLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *finchLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *finchLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *finchLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *finchLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// log formats and writes a log message. this internal helper is used by the public methods
func (l *finchLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements the logger.Factory interface
func CreateLogger(pkgName string) logger.ILogger {
	// Create standard logger with custom flags
	stdLogger := log.New(os.Stdout, "", log.Ldate|log.Ltime)

	return &finchLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: stdLogger,
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLogLevel converts a string level to logger.LogLevel
func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG
	case "info":
		return logger.INFO
	case "warning", "warn":
		return logger.WARNING
	case "error":
		return logger.ERROR
	default:
		panic(fmt.Sprintf("invalid log level: %s. must be one of debug, info, warn, error", level))
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the custom logger factory and configures the level of
// all known loggers, including dragonboat's internal ones.
func InitLoggers(logLevel string) {
	// Set as the global logger factory for Dragonboat
	logger.SetLoggerFactory(CreateLogger)

	lvl := parseLogLevel(logLevel)

	// Configure Dragonboat loggers
	logger.GetLogger("raft").SetLevel(lvl)
	logger.GetLogger("raftdb").SetLevel(lvl)
	logger.GetLogger("rsm").SetLevel(lvl)
	logger.GetLogger("transport").SetLevel(lvl)
	logger.GetLogger("dragonboat").SetLevel(lvl)
	logger.GetLogger("grpc").SetLevel(lvl)
	logger.GetLogger("util").SetLevel(lvl)
	logger.GetLogger("logdb").SetLevel(lvl)

	// configure application loggers
	logger.GetLogger("store").SetLevel(lvl)
	logger.GetLogger("server").SetLevel(lvl)
	logger.GetLogger("client").SetLevel(lvl)
}
