package log

import (
	"errors"
	"fmt"
)

// LogCfg configures the framework logger: output destinations, minimum
// level, file rotation and the per-connection debugging facilities. All
// fields support hot reload through the configuration manager.
type LogCfg struct {
	// LogPath is the target file for file-based output. Relative and
	// absolute paths are accepted; missing directories are created.
	LogPath string `mapstructure:"path"`

	// LogLevel is the minimum level written out. Can be changed at
	// runtime without restarting the process.
	LogLevel Level `mapstructure:"level"`

	// FileSplitMB rotates the log file once it grows past this many
	// megabytes. Zero disables size-based rotation.
	FileSplitMB int `mapstructure:"splitmb"`

	// IsAsync moves file writes off the logging goroutine. Recommended
	// for latency-sensitive servers; lines are queued and flushed by a
	// background worker.
	IsAsync bool `mapstructure:"isasync"`

	// AsyncCacheSize caps the number of queued lines in async mode.
	// Defaults to 1024 when zero.
	AsyncCacheSize int `mapstructure:"asynccachesize"`

	// CallerSkip adjusts how many stack frames the caller lookup skips.
	// Useful when the logger is wrapped by another layer.
	CallerSkip int `mapstructure:"callerSkip"`

	// FileAppender enables file output.
	FileAppender bool `mapstructure:"fileAppender"`

	// ConsoleAppender enables stdout output.
	ConsoleAppender bool `mapstructure:"consoleAppender"`

	// LevelChange overrides the minimum level for individual call
	// sites, keyed by file and line. Hot-reloadable, which allows
	// turning on verbose logging for one code path in production.
	LevelChange []LevelChangeEntry `mapstructure:"levelChange"`

	// ConnWhiteList lists connection IDs that bypass level filtering
	// entirely. Used to capture full traffic detail for a handful of
	// connections while the rest of the server logs normally.
	ConnWhiteList []uint64 `mapstructure:"connWhiteList"`

	// connWhiteListSet caches ConnWhiteList for O(1) lookups.
	connWhiteListSet map[uint64]struct{} `mapstructure:"-"`

	// ConnFileLog additionally routes a connection logger's output to a
	// per-connection file next to the main log.
	ConnFileLog bool `mapstructure:"connFileLog"`

	// EnabledCallerInfo captures file, function and line for each event.
	EnabledCallerInfo bool `mapstructure:"enabledCallerInfo"`
}

// GetName returns the configuration name used by the config manager.
func (cfg *LogCfg) GetName() string {
	return "logger"
}

// Validate checks the configuration values for consistency.
func (cfg *LogCfg) Validate() error {
	if cfg.LogLevel > FatalLevel {
		return fmt.Errorf("invalid log level: %d", cfg.LogLevel)
	}

	if cfg.FileAppender && cfg.LogPath == "" {
		return errors.New("log path is required when the file appender is enabled")
	}

	if cfg.FileSplitMB < 0 {
		return fmt.Errorf("invalid file split size: %d", cfg.FileSplitMB)
	}

	if cfg.AsyncCacheSize < 0 {
		return fmt.Errorf("invalid async cache size: %d", cfg.AsyncCacheSize)
	}

	return nil
}

// IsInWhiteList reports whether connID bypasses level filtering.
func (cfg *LogCfg) IsInWhiteList(connID uint64) bool {
	if len(cfg.connWhiteListSet) == 0 && len(cfg.ConnWhiteList) != 0 {
		cfg.connWhiteListSet = make(map[uint64]struct{}, len(cfg.ConnWhiteList))
		for _, id := range cfg.ConnWhiteList {
			cfg.connWhiteListSet[id] = struct{}{}
		}
	}

	_, exists := cfg.connWhiteListSet[connID]
	return exists
}

var _defaultCfg = &LogCfg{
	LogPath:         "./hermes.log",
	LogLevel:        DebugLevel,
	FileSplitMB:     50,
	IsAsync:         true,
	CallerSkip:      1,
	FileAppender:    true,
	ConsoleAppender: true,
}

func getDefaultCfg() *LogCfg {
	return _defaultCfg
}
