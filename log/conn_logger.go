package log

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ConnLogger stamps every event with the owning connection ID so the
// lifetime of a single connection can be followed through the main log.
// Connections on the configured whitelist bypass level filtering, and
// with ConnFileLog enabled their events are additionally copied to a
// per-connection file, which keeps a noisy debugging session out of the
// way of normal operation.
type ConnLogger struct {
	*RPCLogger
	connID      uint64
	inWhiteList bool
}

// NewConnLogger creates a logger bound to one connection.
func NewConnLogger(cfg *LogCfg, connID uint64) *ConnLogger {
	if cfg == nil {
		cfg = getDefaultCfg()
	}

	logger := &RPCLogger{
		minLevel:          cfg.LogLevel,
		callerSkip:        cfg.CallerSkip,
		levelChange:       newLevelChange(cfg.LevelChange),
		enabledCallerInfo: cfg.EnabledCallerInfo,
		currentConfig:     cfg,
	}

	connLogger := &ConnLogger{
		RPCLogger:   logger,
		connID:      connID,
		inWhiteList: cfg.IsInWhiteList(connID),
	}

	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}

	// The shared file always receives the events; the per-connection
	// file is an additional copy.
	if cfg.FileAppender {
		logger.AddAppender(NewFileAppender(cfg))
	}

	if cfg.ConnFileLog {
		connCfg := *cfg
		ext := filepath.Ext(connCfg.LogPath)
		base := strings.TrimSuffix(connCfg.LogPath, ext)
		connCfg.LogPath = fmt.Sprintf("%s_%d%s", base, connID, ext)

		connLogger.AddAppender(NewFileAppender(&connCfg))
	}

	return connLogger
}

func (x *ConnLogger) log(level Level) *LogEvent {
	logEvent := x.RPCLogger.logWith(level, x.inWhiteList)
	if logEvent == nil {
		return nil
	}

	return logEvent.Uint64("conn", x.connID)
}

// IgnoreCheckLevel reports whether this connection bypasses level
// filtering, which is true for whitelisted connection IDs.
func (x *ConnLogger) IgnoreCheckLevel() bool {
	return x.inWhiteList
}

// Debug creates a debug-level event carrying the connection ID.
func (x *ConnLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates an info-level event carrying the connection ID.
func (x *ConnLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a warn-level event carrying the connection ID.
func (x *ConnLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates an error-level event carrying the connection ID.
func (x *ConnLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a fatal-level event carrying the connection ID.
func (x *ConnLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}
