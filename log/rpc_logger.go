package log

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/lcx/hermes/config"
)

// RPCLogger is the standard logger of the Hermes framework. It is built
// for hot paths on RPC servers: the level gate is a single atomic load,
// events come from a sync.Pool, and caller lookups are cached per program
// counter, so a filtered log call costs almost nothing.
//
// Output destinations are pluggable appenders (console, rotating file).
// When constructed with a configuration manager the logger follows hot
// reloads of the "logger" section, letting operators change levels and
// per-call-site overrides on a running server.
//
// Example:
//
//	logger := NewLogger(&LogCfg{
//	    LogLevel:        InfoLevel,
//	    ConsoleAppender: true,
//	})
//	logger.Info().Str("target", "127.0.0.1:8700").Msg("connected")
type RPCLogger struct {
	appenders         []LogAppender
	minLevel          Level
	callerSkip        int
	eventPool         *sync.Pool
	levelChange       *levelChange
	callerCache       sync.Map
	enabledCallerInfo bool
	configManager     config.ConfigManager
	configMutex       sync.RWMutex
	currentConfig     *LogCfg
}

// NewLogger creates an RPCLogger from cfg, falling back to the package
// defaults when cfg is nil.
func NewLogger(cfg *LogCfg) *RPCLogger {
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

	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	if cfg.FileAppender {
		logger.AddAppender(NewFileAppender(cfg))
	}
	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}

	return logger
}

// NewLoggerWithConfigManager creates an RPCLogger that follows hot
// reloads of the "logger" configuration section.
func NewLoggerWithConfigManager(cfg *LogCfg, configManager config.ConfigManager) *RPCLogger {
	logger := NewLogger(cfg)
	logger.configManager = configManager

	if configManager != nil {
		configManager.AddChangeListener(logger)
		logger.reconfigureAppendersWithConfigManager(configManager)
	}

	return logger
}

// reconfigureAppendersWithConfigManager rebuilds the appender list so
// that the file appender also follows configuration reloads.
func (x *RPCLogger) reconfigureAppendersWithConfigManager(configManager config.ConfigManager) {
	if configManager == nil {
		return
	}
	loaded, err := configManager.GetConfig("logger")
	if err != nil {
		return
	}
	logCfg, ok := loaded.(*LogCfg)
	if !ok {
		return
	}

	x.appenders = nil
	if logCfg.FileAppender {
		x.AddAppender(NewFileAppenderWithConfigManager(configManager))
	}
	if logCfg.ConsoleAppender {
		x.AddAppender(NewConsoleAppender())
	}
}

// OnConfigChanged implements config.ConfigChangeListener.
func (x *RPCLogger) OnConfigChanged(configName string, newConfig, oldConfig config.Config) error {
	if configName != "logger" {
		return nil
	}
	newLogCfg, ok := newConfig.(*LogCfg)
	if !ok {
		return nil
	}

	x.updateConfig(newLogCfg)

	// Forward the change to appenders that also listen.
	for _, appender := range x.appenders {
		if listener, ok := appender.(config.ConfigChangeListener); ok {
			if err := listener.OnConfigChanged(configName, newConfig, oldConfig); err != nil {
				x.Error().Err(err).Msg("appender rejected logger config change")
			}
		}
	}

	return nil
}

// updateConfig applies a reloaded configuration. The minimum level is
// stored with an atomic write so concurrent level checks never tear.
func (x *RPCLogger) updateConfig(newCfg *LogCfg) {
	x.configMutex.Lock()
	defer x.configMutex.Unlock()

	atomic.StoreUint32((*uint32)(unsafe.Pointer(&x.minLevel)), uint32(newCfg.LogLevel))
	x.callerSkip = newCfg.CallerSkip
	x.enabledCallerInfo = newCfg.EnabledCallerInfo
	x.currentConfig = newCfg

	if newCfg.LevelChange != nil {
		x.levelChange = newLevelChange(newCfg.LevelChange)
	}

	x.Refresh()
}

// GetCurrentConfig returns the configuration currently in effect.
func (x *RPCLogger) GetCurrentConfig() *LogCfg {
	x.configMutex.RLock()
	defer x.configMutex.RUnlock()
	return x.currentConfig
}

func (x *RPCLogger) checkLevel(level Level) bool {
	currentLevel := Level(atomic.LoadUint32((*uint32)(unsafe.Pointer(&x.minLevel))))
	return currentLevel <= level
}

// AddAppender registers an additional output destination.
func (x *RPCLogger) AddAppender(appender LogAppender) {
	x.appenders = append(x.appenders, appender)
}

// GetAppender returns the registered appenders.
func (x *RPCLogger) GetAppender() []LogAppender {
	return x.appenders
}

// Refresh flushes all appenders. Useful before shutdown or in tests that
// read the log file back.
func (x *RPCLogger) Refresh() {
	for _, appender := range x.appenders {
		appender.Refresh()
	}
}

// IgnoreCheckLevel reports whether level filtering is bypassed. The base
// logger always filters; ConnLogger overrides this for whitelisted
// connections.
func (x *RPCLogger) IgnoreCheckLevel() bool {
	return false
}

func (x *RPCLogger) newEvent() *LogEvent {
	e := x.eventPool.Get().(*LogEvent)
	e.Reset()
	return e
}

// OnEventEnd writes a finished event to every appender and recycles it.
// A fatal event panics after it is written.
func (x *RPCLogger) OnEventEnd(e *LogEvent) {
	for _, appender := range x.appenders {
		appender.Write(e.buf.Bytes())
	}

	if e.level == FatalLevel {
		panic("fatal log event")
	}

	x.eventPool.Put(e)
}

// Debug creates a debug-level event, or nil when filtered.
func (x *RPCLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates an info-level event, or nil when filtered.
func (x *RPCLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a warn-level event, or nil when filtered.
func (x *RPCLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates an error-level event, or nil when filtered.
func (x *RPCLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a fatal-level event. Finishing it panics after the event
// is written to all appenders.
func (x *RPCLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}

// getCallerInfo resolves the logging call site, caching the result per
// program counter. The file is shortened to its last two path components.
func (x *RPCLogger) getCallerInfo() *callerInfo {
	pc, file, line, ok := runtime.Caller(3 + x.callerSkip)
	if !ok {
		return _UnknownCallerInfo
	}

	if cached, found := x.callerCache.Load(pc); found {
		return cached.(*callerInfo)
	}

	funcName := runtime.FuncForPC(pc).Name()
	var function string
	if dotIdx := strings.LastIndexByte(funcName, '.'); dotIdx != -1 {
		function = funcName[dotIdx+1:]
	} else {
		function = funcName
	}

	if len(file) > 0 {
		lastSlash := strings.LastIndexByte(file, '/')
		if lastSlash > 0 {
			secondLastSlash := strings.LastIndexByte(file[:lastSlash], '/')
			if secondLastSlash >= 0 {
				file = file[secondLastSlash+1:]
			}
		}
	}

	c := newCallerInfo(file, function, line)
	x.callerCache.Store(pc, c)

	return c
}

// log gates on the minimum level, applies per-call-site overrides, and
// stamps the common fields onto a pooled event.
func (x *RPCLogger) log(level Level) *LogEvent {
	return x.logWith(level, false)
}

// logWith builds the event once filtering has been decided. Calls that
// arrive through an embedded RPCLogger never reach the outer type's
// IgnoreCheckLevel, so wrappers pass their bypass decision explicitly.
func (x *RPCLogger) logWith(level Level, bypassFilter bool) *LogEvent {
	var info *callerInfo
	if !bypassFilter && !x.checkLevel(level) {
		if x.levelChange.Empty() {
			return nil
		}
		// A call-site override may raise this event above the gate.
		info = x.getCallerInfo()
		level = x.levelChange.GetLevel(info.file, info.line, level)
		if !x.checkLevel(level) {
			return nil
		}
	}

	e := x.newEvent()
	e.level = level

	t := time.Now()
	e.Time("time", &t)
	e.Str("level", level.String())

	if x.enabledCallerInfo {
		if info == nil {
			info = x.getCallerInfo()
		}
		e.Str("caller", info.String())
	}

	return e
}
