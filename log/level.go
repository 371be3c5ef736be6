package log

import "strconv"

// Level is the severity of a log event. The underlying type is uint32 so
// the minimum level can be swapped atomically during hot reload.
type Level uint32

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
}

// LevelChangeEntry overrides the minimum log level for a single call site,
// identified by file name and line number. Entries are applied at runtime
// through configuration hot reload, which makes it possible to turn on
// verbose logging for one code path in production without restarting.
type LevelChangeEntry struct {
	// FileName is the caller file as captured by the logger, i.e. the
	// last two path components such as "conn/manager.go".
	FileName string `mapstructure:"fileName"`

	// LineNum is the source line of the log call.
	LineNum int `mapstructure:"lineNum"`

	// LogLevel is the numeric level to apply for this call site.
	LogLevel int `mapstructure:"logLevel"`
}

// levelChange indexes per-call-site level overrides for O(1) lookup on the
// filtered logging path.
type levelChange struct {
	overrides map[string]Level
}

func newLevelChange(entries []LevelChangeEntry) *levelChange {
	lc := &levelChange{}
	if len(entries) == 0 {
		return lc
	}
	lc.overrides = make(map[string]Level, len(entries))
	for _, e := range entries {
		lc.overrides[e.FileName+":"+strconv.Itoa(e.LineNum)] = Level(e.LogLevel)
	}
	return lc
}

// Empty reports whether no overrides are configured.
func (lc *levelChange) Empty() bool {
	return lc == nil || len(lc.overrides) == 0
}

// GetLevel returns the override level for the given call site, or def if
// none is configured.
func (lc *levelChange) GetLevel(file string, line int, def Level) Level {
	if lc.Empty() {
		return def
	}
	if lv, ok := lc.overrides[file+":"+strconv.Itoa(line)]; ok {
		return lv
	}
	return def
}
