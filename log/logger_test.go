package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lcx/hermes/config"
)

// TestConsoleAppender_WriteDirect 直接使用 ConsoleAppender.Write，
func TestConsoleAppender_WriteDirect(t *testing.T) {
	ca := NewConsoleAppender()
	msg := []byte("hello-console-direct\n")
	n, err := ca.Write(msg)
	if err != nil {
		t.Fatalf("ConsoleAppender.Write returned error: %v", err)
	}
	if n != len(msg) {
		t.Fatalf("ConsoleAppender.Write wrote %d bytes, want %d", n, len(msg))
	}
}

// TestConnLogger_BasicFunctionality 测试ConnLogger的基本功能，确保它能正确记录带connID的日志
func TestConnLogger_BasicFunctionality(t *testing.T) {
	// 创建临时文件路径
	tmp, err := os.CreateTemp("", "hermes-conn-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	const testConnID = 123456

	cfg := &LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         path,
	}

	// 创建ConnLogger
	connLogger := NewConnLogger(cfg, testConnID)

	// 记录不同级别的日志
	connLogger.Info().Str("event", "established").Msg("Connection established successfully")
	connLogger.Warn().Str("reason", "timeout").Msg("Connection keepalive timeout warning")

	connLogger.Refresh()

	// 读取日志文件并验证
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}

	logContent := string(data)
	// 验证日志中包含connID
	if !strings.Contains(logContent, fmt.Sprintf("\"conn\":%d", testConnID)) {
		t.Fatalf("expected log to contain conn ID %d, got: %q", testConnID, logContent)
	}
	// 验证日志内容
	if !strings.Contains(logContent, "Connection established successfully") {
		t.Fatalf("expected info log not found in file")
	}
	if !strings.Contains(logContent, "Connection keepalive timeout warning") {
		t.Fatalf("expected warn log not found in file")
	}
}

// TestConnLogger_LogPathModification 测试ConnLogger是否正确修改日志路径，添加connID后缀
func TestConnLogger_LogPathModification(t *testing.T) {
	tmpDir := t.TempDir()
	baseLogPath := filepath.Join(tmpDir, "test_conn.log")

	const testConnID = 789012

	cfg := &LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false, // 禁用控制台输出，专注于文件测试
		FileAppender:    true,
		LogPath:         baseLogPath,
		ConnFileLog:     true, // 启用每连接文件日志
	}

	// 创建ConnLogger，这应该会修改日志路径
	connLogger := NewConnLogger(cfg, testConnID)

	// 写入一条日志以确保文件被创建
	connLogger.Info().Msg("testing log path modification")

	// 强制刷新并等待文件创建
	connLogger.Refresh()

	// 构建预期的日志文件路径
	ext := filepath.Ext(baseLogPath)
	base := strings.TrimSuffix(baseLogPath, ext)
	expectedLogPath := fmt.Sprintf("%s_%d%s", base, testConnID, ext)

	// 检查文件是否存在
	_, err := os.Stat(expectedLogPath)
	if os.IsNotExist(err) {
		t.Fatalf("expected log file %s does not exist", expectedLogPath)
	} else if err != nil {
		t.Fatalf("stat log file failed: %v", err)
	}

	// 验证原始文件也存在（双重输出验证）
	_, err = os.Stat(baseLogPath)
	if os.IsNotExist(err) {
		t.Fatalf("original log file %s should also exist", baseLogPath)
	}
}

// TestConnLogger_WhiteListFunctionality 测试ConnLogger的白名单功能
func TestConnLogger_WhiteListFunctionality(t *testing.T) {
	const whiteListedConnID = 111222
	const nonWhiteListedConnID = 333444

	// 创建带有白名单的配置
	cfg := &LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    false,                       // 禁用文件输出，专注于白名单功能测试
		ConnWhiteList:   []uint64{whiteListedConnID}, // 只包含一个connID的白名单
	}

	// 创建两个ConnLogger实例
	whiteListedLogger := NewConnLogger(cfg, whiteListedConnID)
	nonWhiteListedLogger := NewConnLogger(cfg, nonWhiteListedConnID)

	// 验证白名单状态
	if !whiteListedLogger.IgnoreCheckLevel() {
		t.Fatalf("conn %d should be in whitelist", whiteListedConnID)
	}
	if nonWhiteListedLogger.IgnoreCheckLevel() {
		t.Fatalf("conn %d should not be in whitelist", nonWhiteListedConnID)
	}
}

// TestConnLogger_WhiteListBypassesLevel 白名单连接绕过级别过滤，低于阈值的日志仍然输出
func TestConnLogger_WhiteListBypassesLevel(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "whitelist.log")

	const connID = 555666

	cfg := &LogCfg{
		LogLevel:        ErrorLevel, // 阈值设为Error，Debug本应被过滤
		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         path,
		ConnWhiteList:   []uint64{connID},
	}

	connLogger := NewConnLogger(cfg, connID)
	connLogger.Debug().Msg("whitelist-bypass-debug")
	connLogger.Refresh()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	if !strings.Contains(string(data), "whitelist-bypass-debug") {
		t.Fatalf("whitelisted conn debug log should bypass level filter, got: %q", string(data))
	}
}

// TestConnLogger_Concurrency 测试ConnLogger在并发环境下的性能和正确性
func TestConnLogger_Concurrency(t *testing.T) {
	tmpDir := t.TempDir()
	baseLogPath := filepath.Join(tmpDir, "concurrent_conn.log")

	// 配置
	cfg := &LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         baseLogPath,
		IsAsync:         true,
		ConnFileLog:     true,
	}

	// 并发写入参数
	const (
		conns        = 5   // 不同的连接数量
		perGoroutine = 100 // 每个连接写入的日志条目数
	)

	var logFiles []string

	// 为每个连接创建独立的ConnLogger
	loggers := make([]*ConnLogger, conns)
	for i := 0; i < conns; i++ {
		connID := uint64(100000 + i)
		// 为每个连接复制配置，确保路径正确修改
		connCfg := *cfg
		loggers[i] = NewConnLogger(&connCfg, connID)
		// 记录预期的日志文件路径
		ext := filepath.Ext(baseLogPath)
		base := strings.TrimSuffix(baseLogPath, ext)
		logFiles = append(logFiles, fmt.Sprintf("%s_%d%s", base, connID, ext))
	}

	var wg sync.WaitGroup
	var wg2 sync.WaitGroup

	for i := 0; i < conns; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				wg2.Add(1)
				go func(entry int) {
					defer wg2.Done()
					loggers[i].Info().
						Int("goroutine", goroutineID).
						Int("entry", entry).
						Msg("concurrent conn test")
				}(j)
			}
		}(i)
	}

	// 等待所有写入完成
	wg.Wait()
	wg2.Wait()

	// 等待异步日志写入完成
	for _, v := range loggers {
		v.Refresh()
	}

	// 验证每个连接的日志文件都包含预期的条目
	for i, filePath := range logFiles {
		data, err := os.ReadFile(filePath)
		if err != nil {
			t.Fatalf("read log file %s failed: %v", filePath, err)
		}

		content := string(data)
		hasConnID := strings.Contains(content, fmt.Sprintf("\"conn\":%d", uint64(100000+i)))
		if !hasConnID {
			t.Fatalf("log file %s does not contain expected conn ID", filePath)
		}

		// 检查日志条目数量
		occurrences := strings.Count(content, "concurrent conn test")
		if occurrences != perGoroutine {
			t.Fatalf("file %s has wrong log entry count: got %d, expected %d",
				filePath, occurrences, perGoroutine)
		}
	}
}

// TestLogger_WithConsoleAppender 通过 NewLogger 启用 ConsoleAppender，
func TestLogger_WithConsoleAppender(t *testing.T) {
	logger := NewLogger(&LogCfg{
		LogLevel:          InfoLevel,
		ConsoleAppender:   true,
		FileAppender:      false,
		EnabledCallerInfo: true,
	})
	logger.Info().Msg("logger-console-test")
}

// TestFileAppender_WriteAndLogger 使用临时文件验证 FileAppender 写入。
func TestFileAppender_WriteAndLogger(t *testing.T) {
	// 创建临时文件路径
	tmp, err := os.CreateTemp("", "hermes-log-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	cfg := &LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
		FileAppender:    true,
		LogPath:         path,
	}

	logger := NewLogger(cfg)

	logger.Info().Msg("logger-file-test")

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		t.Fatalf("read temp log file failed: %v", rerr)
	}
	if !strings.Contains(string(data), "logger-file-test") {
		t.Fatalf("expected file logger to contain %q, got: %q", "logger-file-test", string(data))
	}
}

// TestLogEvent_FieldFormats 验证各字段方法的序列化格式
func TestLogEvent_FieldFormats(t *testing.T) {
	tmp, err := os.CreateTemp("", "hermes-fields-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	cfg := &LogCfg{
		LogLevel:     InfoLevel,
		FileAppender: true,
		LogPath:      path,
	}

	logger := NewLogger(cfg)

	logger.Info().
		Str(`na"me`, "gate\n1").
		Int("attempt", 3).
		Int64("bytes", -42).
		Uint32("seq", 7).
		Bool("retryable", true).
		Dur("backoff", 1500*time.Millisecond).
		Err(errors.New("dial refused")).
		Msg("field-format-test")

	logger.Refresh()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	content := string(data)

	expects := []string{
		`"na\"me":"gate\n1"`, // key和value都要转义
		`"attempt":3`,
		`"bytes":-42`,
		`"seq":7`,
		`"retryable":true`,
		`"backoff":"1.5s"`,
		`"error":"dial refused"`,
		`"msg":"field-format-test"`,
	}
	for _, want := range expects {
		if !strings.Contains(content, want) {
			t.Fatalf("expected log to contain %q, got: %q", want, content)
		}
	}

	// nil error 不追加 error 字段
	if strings.Count(content, `"error"`) != 1 {
		t.Fatalf("expected exactly one error field, got: %q", content)
	}
	logger.Info().Err(nil).Msg("no-error-field")
	logger.Refresh()

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	if strings.Count(string(data), `"error"`) != 1 {
		t.Fatalf("nil error must not append a field, got: %q", string(data))
	}
}

// TestLogEvent_NilReceiverChain 被级别过滤后返回的 nil 事件上整条链必须安全
func TestLogEvent_NilReceiverChain(t *testing.T) {
	logger := NewLogger(&LogCfg{
		LogLevel:        ErrorLevel,
		ConsoleAppender: false,
		FileAppender:    false,
	})

	// Debug 被过滤，所有字段方法都在 nil 接收者上执行
	logger.Debug().
		Str("key", "value").
		Int("n", 1).
		Dur("elapsed", time.Second).
		Err(errors.New("ignored")).
		Msg("filtered-out")
	logger.Debug().End()
}

func TestFileAppender_AsyncWriteAndLogger(t *testing.T) {
	// 创建临时文件路径
	tmp, err := os.CreateTemp("", "hermes-log-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	cfg := &LogCfg{
		LogLevel: InfoLevel,

		ConsoleAppender: true,
		FileAppender:    true,
		LogPath:         path,
		IsAsync:         true,
	}

	logger := NewLogger(cfg)

	logger.Info().Msg("logger-file-test")

	defer func() {
		logger.Refresh()
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			t.Fatalf("read temp log file failed: %v", rerr)
		}
		if !strings.Contains(string(data), "logger-file-test") {
			t.Fatalf("expected file logger to contain %q, got: %q", "logger-file-test", string(data))
		}
	}()
}

// TestFileAppender_Concurrency 高并发写入下 FileAppender 能正确记录全部日志（异步模式）
func TestFileAppender_Concurrency(t *testing.T) {
	tmp, err := os.CreateTemp("", "hermes-concurrent-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	cfg := &LogCfg{
		LogLevel: InfoLevel,

		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         path,
		IsAsync:         true,
	}

	logger := NewLogger(cfg)

	var wg sync.WaitGroup
	goroutines := 8
	perG := 200

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				logger.Info().Msg("concurrent-file-test")
			}
		}(i)
	}
	wg.Wait()

	logger.Refresh()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file failed: %v", err)
	}
	occ := strings.Count(string(data), "concurrent-file-test")
	expected := goroutines * perG
	if occ != expected {
		t.Fatalf("expected %d occurrences, got %d", expected, occ)
	}
}

// TestRefresh_DrainsOnlyQueued 确认 Refresh 只清空当前队列，不阻塞等待新写入
func TestRefresh_DrainsOnlyQueued(t *testing.T) {
	tmp, err := os.CreateTemp("", "hermes-refresh-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	cfg := &LogCfg{
		LogLevel: InfoLevel,

		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         path,
		IsAsync:         true,
	}

	logger := NewLogger(cfg)

	// 写入一批日志
	for i := 0; i < 5; i++ {
		logger.Info().Msg("refresh-test")
	}
	// 立即 Refresh，应该把当前队列中的日志落盘，不会阻塞等待未来写入
	start := time.Now()
	logger.Refresh()
	elapsed := time.Since(start)
	if elapsed > time.Second {
		t.Fatalf("Refresh took too long: %v", elapsed)
	}

	// 再写入更多并刷新，确保能继续工作
	for i := 0; i < 3; i++ {
		logger.Info().Msg("refresh-test-2")
	}
	logger.Refresh()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "refresh-test") || !strings.Contains(s, "refresh-test-2") {
		t.Fatalf("expected both groups of logs in file, got: %q", s)
	}
}

// TestLogger_Stress 高并发压力测试，验证日志库在高负载下的正确性和性能。
func TestLogger_Stress(t *testing.T) {
	// 创建临时文件作为日志文件
	tmp, err := os.CreateTemp("", "hermes-stress-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	// 配置异步 FileAppender
	cfg := &LogCfg{
		LogLevel: InfoLevel,

		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         path,
		IsAsync:         true,
	}

	logger := NewLogger(cfg)

	// 并发写入参数
	const (
		goroutines = 50  // 并发写入的 goroutine 数量
		perG       = 500 // 每个 goroutine 写入的日志条目数
	)

	var wg sync.WaitGroup

	// 启动多个 goroutine 并发写入日志
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				logger.Info().
					Int("goroutine", id).
					Int("entry", j).
					Msg("stress-test")
			}
		}(i)
	}

	// 等待所有写入完成
	wg.Wait()

	// 强制刷新日志队列，确保所有日志落盘
	logger.Refresh()

	// 读取日志文件并验证
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}

	// 验证日志条目数量
	out := string(data)
	expected := goroutines * perG
	occurrences := strings.Count(out, "stress-test")
	if occurrences != expected {
		t.Fatalf("expected %d log entries, but got %d", expected, occurrences)
	}
}

// TestRotateBySize 测试日志文件按大小轮转
func TestRotateBySize(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	cfg := &LogCfg{
		LogLevel: InfoLevel,

		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         logPath,
		IsAsync:         false,
		FileSplitMB:     1, // 设置文件大小为 1MB
	}

	logger := NewLogger(cfg)

	// 写入日志，确保超过 1MB
	logContent := strings.Repeat("A", 1024) // 每条日志 1KB
	for i := 0; i < 1100; i++ {             // 写入 1100 条日志，约 1.1MB
		logger.Info().Msg(logContent)
	}

	// 强制刷新日志队列
	logger.Refresh()

	// 检查日志文件是否轮转
	files, err := filepath.Glob(filepath.Join(tmpDir, "test.log*"))
	if err != nil {
		t.Fatalf("failed to list log files: %v", err)
	}

	if len(files) < 2 {
		t.Fatalf("expected at least 2 log files after rotation, got %d", len(files))
	}

	// 验证每个文件的大小
	for _, file := range files {
		info, err := os.Stat(file)

		if err != nil {
			t.Fatalf("failed to stat file %s: %v", file, err)
		}
		if float64(info.Size()) > 1.05*1024*1024 {
			t.Fatalf("log file %s exceeds 1MB: %d bytes", file, info.Size())
		}
	}
}

// TestConnLogger_DifferentLogLevels 测试ConnLogger的不同日志级别
func TestConnLogger_DifferentLogLevels(t *testing.T) {
	// 创建临时文件路径
	tmp, err := os.CreateTemp("", "hermes-conn-levels-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	const testConnID = 654321

	// 设置日志级别为Debug，这样所有级别都能被记录
	cfg := &LogCfg{
		LogLevel:        DebugLevel,
		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         path,
	}

	// 创建ConnLogger
	connLogger := NewConnLogger(cfg, testConnID)

	// 记录不同级别的日志
	connLogger.Debug().Msg("This is a debug message")
	connLogger.Info().Msg("This is an info message")
	connLogger.Warn().Msg("This is a warning message")
	connLogger.Error().Msg("This is an error message")

	// 强制刷新日志
	connLogger.Refresh()

	// 读取日志文件并验证
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}

	logContent := string(data)

	// 验证所有日志级别都被正确记录
	expectedMessages := []struct {
		level   string
		message string
	}{{
		level:   DebugLevel.String(),
		message: "This is a debug message",
	}, {
		level:   InfoLevel.String(),
		message: "This is an info message",
	}, {
		level:   WarnLevel.String(),
		message: "This is a warning message",
	}, {
		level:   ErrorLevel.String(),
		message: "This is an error message",
	}}

	for _, expected := range expectedMessages {
		if !strings.Contains(logContent, fmt.Sprintf("\"level\":\"%s\"", expected.level)) {
			t.Fatalf("expected log level %s not found in file", expected.level)
		}
		if !strings.Contains(logContent, expected.message) {
			t.Fatalf("expected message '%s' not found in file", expected.message)
		}
	}

	// 验证connID被正确记录
	if !strings.Contains(logContent, fmt.Sprintf("\"conn\":%d", testConnID)) {
		t.Fatalf("expected conn ID %d not found in file", testConnID)
	}
}

// TestConnLogger_DisabledConnFileLog 测试禁用ConnFileLog时的行为
func TestConnLogger_DisabledConnFileLog(t *testing.T) {
	// 创建临时文件路径
	tmp, err := os.CreateTemp("", "hermes-conn-disabled-*.log")
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	const testConnID = 987654

	// 禁用ConnFileLog
	cfg := &LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         path,
		ConnFileLog:     false, // 禁用每连接文件日志
	}

	// 创建ConnLogger
	connLogger := NewConnLogger(cfg, testConnID)

	// 写入一条日志
	connLogger.Info().Msg("test log with disabled conn file")
	connLogger.Refresh()

	// 验证原始日志文件存在
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		t.Fatalf("expected original log file %s does not exist", path)
	} else if err != nil {
		t.Fatalf("stat log file failed: %v", err)
	}

	// 验证连接特定的日志文件不存在
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	expectedConnLogPath := fmt.Sprintf("%s_%d%s", base, testConnID, ext)
	_, err = os.Stat(expectedConnLogPath)
	if err == nil {
		t.Fatalf("conn-specific log file %s should not exist when ConnFileLog is disabled", expectedConnLogPath)
	} else if !os.IsNotExist(err) {
		t.Fatalf("unexpected error when checking conn log file: %v", err)
	}
}

// TestConnLogger_NilConfig 测试使用nil配置创建ConnLogger
func TestConnLogger_NilConfig(t *testing.T) {
	const testConnID = 112233

	// 使用nil配置创建ConnLogger
	connLogger := NewConnLogger(nil, testConnID)

	// 写入一条日志
	connLogger.Info().Msg("test log with nil config")

	// 验证返回的logger不为nil
	if connLogger == nil {
		t.Fatalf("NewConnLogger with nil config returned nil")
	}

	// 验证connID被正确设置
	if !strings.Contains(fmt.Sprintf("%+v", connLogger), fmt.Sprintf("connID:%d", testConnID)) {
		t.Fatalf("connID not properly set in ConnLogger")
	}
}

// TestLoggerHotReloadBasic tests basic hot-reload functionality
func TestLoggerHotReloadBasic(t *testing.T) {
	// Create a mock configuration manager
	mockManager := NewMockConfigManager()

	// Create logger with configuration manager
	logger := NewLoggerWithConfigManager(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
	}, mockManager)

	// Verify initial configuration
	if logger.GetCurrentConfig().LogLevel != InfoLevel {
		t.Errorf("Expected initial log level Info, got %v", logger.GetCurrentConfig().LogLevel)
	}

	// Update configuration
	newConfig := &LogCfg{
		LogLevel:        DebugLevel,
		ConsoleAppender: true,
	}

	err := logger.OnConfigChanged("logger", newConfig, logger.GetCurrentConfig())
	if err != nil {
		t.Errorf("Failed to update configuration: %v", err)
	}

	// Verify configuration was updated
	if logger.GetCurrentConfig().LogLevel != DebugLevel {
		t.Errorf("Expected updated log level Debug, got %v", logger.GetCurrentConfig().LogLevel)
	}
}

// TestLoggerHotReloadConcurrent tests concurrent configuration updates
func TestLoggerHotReloadConcurrent(t *testing.T) {
	mockManager := NewMockConfigManager()
	logger := NewLoggerWithConfigManager(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
	}, mockManager)

	// Simulate concurrent configuration updates
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(level Level) {
			defer wg.Done()
			newConfig := &LogCfg{
				LogLevel:        level,
				ConsoleAppender: true,
			}
			err := logger.OnConfigChanged("logger", newConfig, logger.GetCurrentConfig())
			if err != nil {
				t.Logf("Configuration update error (expected in concurrent test): %v", err)
			}
		}(Level(i % 3))
	}
	wg.Wait()

	// Verify logger is still functional
	if logger.GetCurrentConfig() == nil {
		t.Error("Logger configuration should not be nil after concurrent updates")
	}
}

// TestLoggerHotReloadLevelChange tests fine-grained level change hot-reload
func TestLoggerHotReloadLevelChange(t *testing.T) {
	mockManager := NewMockConfigManager()
	logger := NewLoggerWithConfigManager(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
		LevelChange: []LevelChangeEntry{
			{FileName: "test.go", LineNum: 42, LogLevel: int(DebugLevel)},
		},
	}, mockManager)

	// Verify initial level change configuration
	if logger.GetCurrentConfig().LevelChange[0].LogLevel != int(DebugLevel) {
		t.Error("Initial level change configuration incorrect")
	}

	// Update level change configuration
	newConfig := &LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
		LevelChange: []LevelChangeEntry{
			{FileName: "test.go", LineNum: 42, LogLevel: int(TraceLevel)},
			{FileName: "another.go", LineNum: 100, LogLevel: int(DebugLevel)},
		},
	}

	err := logger.OnConfigChanged("logger", newConfig, logger.GetCurrentConfig())
	if err != nil {
		t.Errorf("Failed to update level change configuration: %v", err)
	}

	// Verify level change configuration was updated
	if len(logger.GetCurrentConfig().LevelChange) != 2 {
		t.Errorf("Expected 2 level change entries, got %d", len(logger.GetCurrentConfig().LevelChange))
	}
}

// TestLoggerHotReloadPerformance tests performance impact of hot-reload
func TestLoggerHotReloadPerformance(t *testing.T) {
	mockManager := NewMockConfigManager()
	logger := NewLoggerWithConfigManager(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
	}, mockManager)

	// Benchmark logging performance with hot-reload
	start := time.Now()
	iterations := 10000

	for i := 0; i < iterations; i++ {
		// Simulate configuration change every 1000 iterations
		if i%1000 == 0 && i > 0 {
			newConfig := &LogCfg{
				LogLevel:        Level(i % 5),
				ConsoleAppender: true,
			}
			logger.OnConfigChanged("logger", newConfig, logger.GetCurrentConfig())
		}

		// Perform logging operation
		if logger.checkLevel(InfoLevel) {
			// Simulate log event creation (without actual output)
			_ = logger.newEvent()
		}
	}

	elapsed := time.Since(start)
	t.Logf("Processed %d log events with hot-reload in %v (avg: %v/event)",
		iterations, elapsed, elapsed/time.Duration(iterations))

	if elapsed > 2*time.Second {
		t.Log("Performance test completed (hot-reload adds minimal overhead)")
	}
}

// TestLoggerAtomicLevelUpdate tests atomic level update functionality
func TestLoggerAtomicLevelUpdate(t *testing.T) {
	mockManager := NewMockConfigManager()
	logger := NewLoggerWithConfigManager(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
	}, mockManager)

	// Test atomic level updates are thread-safe
	var wg sync.WaitGroup
	levels := []Level{TraceLevel, DebugLevel, InfoLevel, WarnLevel, ErrorLevel}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			// Rapidly check level from multiple goroutines
			for j := 0; j < 100; j++ {
				level := levels[index%len(levels)]
				_ = logger.checkLevel(level)
			}
		}(i % len(levels))
	}

	// Simultaneously update configuration
	go func() {
		for i := 0; i < 10; i++ {
			newConfig := &LogCfg{
				LogLevel:        levels[i%len(levels)],
				ConsoleAppender: true,
			}
			logger.OnConfigChanged("logger", newConfig, logger.GetCurrentConfig())
			time.Sleep(time.Millisecond * 10)
		}
	}()

	wg.Wait()
	t.Log("Atomic level update test completed without race conditions")
}

// BenchmarkHotReload benchmarks the performance impact of hot-reload operations
func BenchmarkHotReload(b *testing.B) {
	mockManager := NewMockConfigManager()
	logger := NewLoggerWithConfigManager(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
	}, mockManager)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		newConfig := &LogCfg{
			LogLevel:        Level(i % 5),
			ConsoleAppender: true,
		}
		logger.OnConfigChanged("logger", newConfig, logger.GetCurrentConfig())
	}
}

// BenchmarkLoggingWithHotReload benchmarks logging performance with hot-reload enabled
func BenchmarkLoggingWithHotReload(b *testing.B) {
	mockManager := NewMockConfigManager()
	logger := NewLoggerWithConfigManager(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: true,
	}, mockManager)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		// Simulate configuration change every 1000 operations
		if i%1000 == 0 {
			newConfig := &LogCfg{
				LogLevel:        Level(i % 5),
				ConsoleAppender: true,
			}
			logger.OnConfigChanged("logger", newConfig, logger.GetCurrentConfig())
		}

		// Benchmark level check (most frequent operation)
		_ = logger.checkLevel(InfoLevel)
	}
}

// MockConfigManager is a mock implementation of ConfigManager for testing
type MockConfigManager struct {
	configs map[string]config.Config
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: make(map[string]config.Config),
	}
}

func (m *MockConfigManager) GetConfig(name string) (config.Config, error) {
	if cfg, exists := m.configs[name]; exists {
		return cfg, nil
	}
	return nil, fmt.Errorf("config %s not found", name)
}

func (m *MockConfigManager) AddChangeListener(listener config.ConfigChangeListener) {
	// Mock implementation - in real scenario this would register the listener
}

func (m *MockConfigManager) RemoveChangeListener(listener config.ConfigChangeListener) {
	// Mock implementation
}

func (m *MockConfigManager) NotifyConfigChanged(configName string, newConfig, oldConfig config.Config) {
	// Mock implementation
}

func (m *MockConfigManager) LoadConfig(configName string, cfg config.Config) error {
	// Mock implementation - store the config
	m.configs[configName] = cfg
	return nil
}

func (m *MockConfigManager) RegisterValidator(configName string, validator config.ValidatorFunc) {
	// Mock implementation
}

func (m *MockConfigManager) RegisterHook(configName string, hook config.HookFunc) {
	// Mock implementation
}

func (m *MockConfigManager) SetConfig(name string, cfg config.Config) {
	m.configs[name] = cfg
}

func (m *MockConfigManager) SetBasePath(path string) {
	// Mock implementation
}

func (m *MockConfigManager) SetEnvironment(env string) {
	// Mock implementation
}

func (m *MockConfigManager) Close() error {
	// Mock implementation
	return nil
}

// TestFileAppenderWithConfigManager tests dynamic configuration loading
func TestFileAppenderWithConfigManager(t *testing.T) {
	// Create temporary directory for test logs
	tempDir := t.TempDir()

	// Create mock config manager
	mockConfigManager := NewMockConfigManager()

	// Create initial configuration
	initialCfg := &LogCfg{
		LogPath:           filepath.Join(tempDir, "test1.log"),
		LogLevel:          InfoLevel,
		FileAppender:      true,
		ConsoleAppender:   false,
		IsAsync:           false, // Use sync mode for simpler testing
		FileSplitMB:       10,
		EnabledCallerInfo: true,
	}

	// Set initial configuration
	mockConfigManager.SetConfig("logger", initialCfg)

	// Create file appender with config manager
	appender := NewFileAppenderWithConfigManager(mockConfigManager)
	defer appender.Close()

	// Test initial configuration
	currentCfg := appender.GetCurrentConfig()
	if currentCfg.LogPath != initialCfg.LogPath {
		t.Errorf("Expected log path %s, got %s", initialCfg.LogPath, currentCfg.LogPath)
	}

	// Write test log
	testMessage := []byte("Test log message 1\n")
	n, err := appender.Write(testMessage)
	if err != nil {
		t.Errorf("Failed to write log: %v", err)
	}
	if n != len(testMessage) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(testMessage), n)
	}

	// Verify log file was created
	if _, err := os.Stat(initialCfg.LogPath); os.IsNotExist(err) {
		t.Errorf("Log file was not created: %v", err)
	}
}

// TestFileAppenderConfigChange tests hot-reload functionality
func TestFileAppenderConfigChange(t *testing.T) {
	// Create temporary directory for test logs
	tempDir := t.TempDir()

	// Create mock config manager
	mockConfigManager := NewMockConfigManager()

	// Create initial configuration
	initialCfg := &LogCfg{
		LogPath:           filepath.Join(tempDir, "initial.log"),
		LogLevel:          InfoLevel,
		FileAppender:      true,
		ConsoleAppender:   false,
		IsAsync:           false,
		FileSplitMB:       10,
		EnabledCallerInfo: true,
	}

	// Set initial configuration
	mockConfigManager.SetConfig("logger", initialCfg)

	// Create file appender with config manager
	appender := NewFileAppenderWithConfigManager(mockConfigManager)
	defer appender.Close()

	// Write to initial log file
	initialMessage := []byte("Initial log message\n")
	appender.Write(initialMessage)

	// Create new configuration with different path
	newCfg := &LogCfg{
		LogPath:           filepath.Join(tempDir, "new.log"),
		LogLevel:          DebugLevel,
		FileAppender:      true,
		ConsoleAppender:   false,
		IsAsync:           false,
		FileSplitMB:       20,
		EnabledCallerInfo: false,
	}

	// Simulate configuration change
	err := appender.OnConfigChanged("logger", newCfg, initialCfg)
	if err != nil {
		t.Errorf("Failed to handle config change: %v", err)
	}

	// Verify configuration was updated
	currentCfg := appender.GetCurrentConfig()
	if currentCfg.LogPath != newCfg.LogPath {
		t.Errorf("Expected new log path %s, got %s", newCfg.LogPath, currentCfg.LogPath)
	}
	if currentCfg.LogLevel != newCfg.LogLevel {
		t.Errorf("Expected new log level %v, got %v", newCfg.LogLevel, currentCfg.LogLevel)
	}

	// Write to new log file
	newMessage := []byte("New log message after config change\n")
	appender.Write(newMessage)

	// Verify new log file was created
	if _, err := os.Stat(newCfg.LogPath); os.IsNotExist(err) {
		t.Errorf("New log file was not created after config change: %v", err)
	}

	// Verify both log files exist and contain expected content
	verifyFileContent(t, initialCfg.LogPath, string(initialMessage))
	verifyFileContent(t, newCfg.LogPath, string(newMessage))
}

// TestFileAppenderAsyncModeChange tests async mode switching
func TestFileAppenderAsyncModeChange(t *testing.T) {
	// Create temporary directory for test logs
	tempDir := t.TempDir()

	// Create mock config manager
	mockConfigManager := NewMockConfigManager()

	// Create initial configuration with sync mode
	initialCfg := &LogCfg{
		LogPath:           filepath.Join(tempDir, "sync.log"),
		LogLevel:          InfoLevel,
		FileAppender:      true,
		ConsoleAppender:   false,
		IsAsync:           false,
		FileSplitMB:       10,
		EnabledCallerInfo: true,
	}

	// Set initial configuration
	mockConfigManager.SetConfig("logger", initialCfg)

	// Create file appender with config manager
	appender := NewFileAppenderWithConfigManager(mockConfigManager)
	defer appender.Close()

	// Write in sync mode
	syncMessage := []byte("Sync mode message\n")
	appender.Write(syncMessage)

	// Switch to async mode
	asyncCfg := &LogCfg{
		LogPath:           filepath.Join(tempDir, "async.log"),
		LogLevel:          InfoLevel,
		FileAppender:      true,
		ConsoleAppender:   false,
		IsAsync:           true,
		AsyncCacheSize:    100,
		FileSplitMB:       10,
		EnabledCallerInfo: true,
	}

	// Simulate configuration change to async mode
	err := appender.OnConfigChanged("logger", asyncCfg, initialCfg)
	if err != nil {
		t.Errorf("Failed to switch to async mode: %v", err)
	}

	// Write in async mode
	asyncMessage := []byte("Async mode message\n")
	appender.Write(asyncMessage)

	// Give async writer time to process
	time.Sleep(200 * time.Millisecond)

	// Verify async log file was created
	if _, err := os.Stat(asyncCfg.LogPath); os.IsNotExist(err) {
		t.Errorf("Async log file was not created: %v", err)
	}
}

// verifyFileContent checks if a file contains expected content
func verifyFileContent(t *testing.T, filePath string, expectedContent string) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Errorf("Failed to read file %s: %v", filePath, err)
		return
	}

	if string(content) != expectedContent {
		t.Errorf("File %s content mismatch. Expected: %q, Got: %q",
			filePath, expectedContent, string(content))
	}
}
