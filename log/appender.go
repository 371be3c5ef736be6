package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lcx/hermes/config"
)

// LogAppender is an output destination for finished log events. A logger
// fans every event out to all of its appenders.
type LogAppender interface {
	Write(p []byte) (n int, err error)
	// Refresh flushes buffered output. For asynchronous appenders it
	// drains whatever is queued at the time of the call without waiting
	// for future writes.
	Refresh()
	Close() error
}

// ConsoleAppender writes log lines to stdout.
type ConsoleAppender struct {
	mu sync.Mutex
}

// NewConsoleAppender returns a stdout appender.
func NewConsoleAppender() *ConsoleAppender {
	return &ConsoleAppender{}
}

func (a *ConsoleAppender) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return os.Stdout.Write(p)
}

func (a *ConsoleAppender) Refresh() {}

func (a *ConsoleAppender) Close() error { return nil }

// FileAppender writes log lines to a file, rotating it once it grows past
// the configured size. It supports a synchronous mode, where Write goes
// straight to disk, and an asynchronous mode, where Write enqueues the
// line and a background goroutine drains the queue in batches.
//
// When constructed with a configuration manager the appender re-reads its
// settings on hot reload, switching file path and write mode in flight.
type FileAppender struct {
	mu   sync.Mutex
	cfg  *LogCfg
	file *os.File
	size int64

	async bool
	queue chan []byte
	flush chan chan struct{}
	quit  chan struct{}
	wg    sync.WaitGroup

	configManager config.ConfigManager
}

const defaultAsyncCacheSize = 1024

// NewFileAppender returns a file appender for the given configuration.
func NewFileAppender(cfg *LogCfg) *FileAppender {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	a := &FileAppender{cfg: cfg}
	if cfg.IsAsync {
		a.startWorker(cfg.AsyncCacheSize)
	}
	return a
}

// NewFileAppenderWithConfigManager returns a file appender that loads its
// configuration from the "logger" section of the configuration manager
// and follows subsequent hot reloads.
func NewFileAppenderWithConfigManager(configManager config.ConfigManager) *FileAppender {
	cfg := getDefaultCfg()
	if configManager != nil {
		if loaded, err := configManager.GetConfig("logger"); err == nil {
			if logCfg, ok := loaded.(*LogCfg); ok {
				cfg = logCfg
			}
		}
	}
	a := NewFileAppender(cfg)
	a.configManager = configManager
	return a
}

func (a *FileAppender) startWorker(cacheSize int) {
	if cacheSize <= 0 {
		cacheSize = defaultAsyncCacheSize
	}
	a.async = true
	a.queue = make(chan []byte, cacheSize)
	a.flush = make(chan chan struct{})
	a.quit = make(chan struct{})
	a.wg.Add(1)
	go a.worker()
}

func (a *FileAppender) worker() {
	defer a.wg.Done()
	for {
		select {
		case p := <-a.queue:
			a.writeBatch(p)
		case ack := <-a.flush:
			a.drainQueue()
			close(ack)
		case <-a.quit:
			// 退出前清空队列
			a.drainQueue()
			return
		}
	}
}

// writeBatch writes p and then greedily drains whatever else is already
// queued, so bursts land on disk with few syscalls.
func (a *FileAppender) writeBatch(p []byte) {
	_, _ = a.writeDirect(p)
	for i := 0; i < 64; i++ {
		select {
		case next := <-a.queue:
			_, _ = a.writeDirect(next)
		default:
			return
		}
	}
}

// Write appends one log line. In async mode the line is copied before it
// is queued because the caller recycles the event buffer immediately.
func (a *FileAppender) Write(p []byte) (int, error) {
	a.mu.Lock()
	async := a.async
	a.mu.Unlock()

	if !async {
		return a.writeDirect(p)
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	a.queue <- cp
	return len(p), nil
}

func (a *FileAppender) writeDirect(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		if err := a.openLocked(); err != nil {
			return 0, err
		}
	}
	if limit := int64(a.cfg.FileSplitMB) * 1024 * 1024; limit > 0 && a.size+int64(len(p)) > limit {
		a.rotateLocked()
	}
	n, err := a.file.Write(p)
	a.size += int64(n)
	return n, err
}

func (a *FileAppender) openLocked() error {
	path := a.cfg.LogPath
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("log: create dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("log: open %s: %w", path, err)
	}
	a.file = f
	a.size = 0
	if info, serr := f.Stat(); serr == nil {
		a.size = info.Size()
	}
	return nil
}

// rotateLocked renames the active file aside and reopens a fresh one.
// A failed rename keeps writing to the current file rather than dropping
// log lines.
func (a *FileAppender) rotateLocked() {
	_ = a.file.Close()
	a.file = nil

	rotated := fmt.Sprintf("%s.%s", a.cfg.LogPath, time.Now().Format("20060102-150405.000"))
	if err := os.Rename(a.cfg.LogPath, rotated); err != nil {
		fmt.Fprintf(os.Stderr, "log: rotate %s: %v\n", a.cfg.LogPath, err)
	}
	if err := a.openLocked(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}

// Refresh flushes the lines queued at the time of the call. In async mode
// it round-trips through the worker, so once Refresh returns every line
// whose Write already returned is on disk. It does not wait for future
// writes.
func (a *FileAppender) Refresh() {
	a.mu.Lock()
	async := a.async
	a.mu.Unlock()

	if async {
		ack := make(chan struct{})
		select {
		case a.flush <- ack:
			<-ack
			return
		case <-a.quit:
			// Worker is on its way out and drains the queue itself.
			a.wg.Wait()
		}
	}
	a.drainQueue()
}

func (a *FileAppender) drainQueue() {
	if a.queue == nil {
		return
	}
	for {
		select {
		case p := <-a.queue:
			_, _ = a.writeDirect(p)
		default:
			return
		}
	}
}

// Close stops the worker, flushes the queue and closes the file.
func (a *FileAppender) Close() error {
	a.mu.Lock()
	async := a.async
	a.async = false
	a.mu.Unlock()

	if async {
		close(a.quit)
		a.wg.Wait()
		a.drainQueue()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		return err
	}
	return nil
}

// GetCurrentConfig returns the configuration the appender currently uses.
func (a *FileAppender) GetCurrentConfig() *LogCfg {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// OnConfigChanged implements config.ConfigChangeListener. A changed log
// path closes the current file so the next write reopens at the new
// location; a changed write mode starts or stops the async worker.
func (a *FileAppender) OnConfigChanged(configName string, newConfig, oldConfig config.Config) error {
	if configName != "logger" {
		return nil
	}
	newCfg, ok := newConfig.(*LogCfg)
	if !ok {
		return nil
	}

	a.mu.Lock()
	oldCfg := a.cfg
	a.cfg = newCfg
	pathChanged := oldCfg.LogPath != newCfg.LogPath
	wasAsync := a.async
	if pathChanged && a.file != nil {
		_ = a.file.Close()
		a.file = nil
		a.size = 0
	}
	a.mu.Unlock()

	if wasAsync && !newCfg.IsAsync {
		a.mu.Lock()
		a.async = false
		a.mu.Unlock()
		close(a.quit)
		a.wg.Wait()
		a.drainQueue()
	} else if !wasAsync && newCfg.IsAsync {
		a.mu.Lock()
		a.startWorker(newCfg.AsyncCacheSize)
		a.mu.Unlock()
	}
	return nil
}
