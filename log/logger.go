package log

import (
	"github.com/lcx/hermes/config"
)

// Logger is the framework logging interface. Level methods return a
// fluent event, or nil when the level is filtered; LogEvent methods
// tolerate a nil receiver so call sites never check.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	Fatal() *LogEvent
	IgnoreCheckLevel() bool
	GetAppender() []LogAppender
	AddAppender(appender LogAppender)
	OnEventEnd(e *LogEvent)
}

var _defaultLogger *RPCLogger

func init() {
	_defaultLogger = NewLogger(nil)
}

// AddAppender adds an appender to the package-level default logger.
func AddAppender(appender LogAppender) {
	_defaultLogger.AddAppender(appender)
}

// Refresh flushes all appenders of the package-level default logger.
func Refresh() {
	_defaultLogger.Refresh()
}

// SetDefaultLogger replaces the package-level default logger.
func SetDefaultLogger(logger *RPCLogger) {
	_defaultLogger = logger
}

// InitializeWithConfigManager builds the default logger from the
// "logger" section of the given configuration manager and registers it
// for hot reload.
func InitializeWithConfigManager(configManager config.ConfigManager) error {
	if configManager == nil {
		return nil
	}

	logCfg := &LogCfg{}
	if err := configManager.LoadConfig("logger", logCfg); err != nil {
		return err
	}

	SetDefaultLogger(NewLoggerWithConfigManager(logCfg, configManager))
	return nil
}

// Initialize builds the default logger from the singleton configuration
// manager.
func Initialize() error {
	return InitializeWithConfigManager(config.GetInstance())
}

// GetConfigManager returns the singleton configuration manager.
func GetConfigManager() config.ConfigManager {
	return config.GetInstance()
}

// Debug creates a debug-level event on the default logger.
func Debug() *LogEvent {
	return _defaultLogger.Debug()
}

// Info creates an info-level event on the default logger.
func Info() *LogEvent {
	return _defaultLogger.Info()
}

// Warn creates a warn-level event on the default logger.
func Warn() *LogEvent {
	return _defaultLogger.Warn()
}

// Error creates an error-level event on the default logger.
func Error() *LogEvent {
	return _defaultLogger.Error()
}

// Fatal creates a fatal-level event on the default logger. Finishing the
// event panics after it is written.
func Fatal() *LogEvent {
	return _defaultLogger.Fatal()
}
