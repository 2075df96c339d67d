package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is a file logger for one bot run. It writes to a single file named
// with the date the logger was created; the file is not rotated.
type Logger struct {
	symbol    string
	interval  string
	logFile   *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logDir    string
	debugMode bool
}

// LogLevel represents different types of log entries.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARN"
	LogLevelError    LogLevel = "ERROR"
	LogLevelTrade    LogLevel = "TRADE"
	LogLevelStatus   LogLevel = "STATUS"
	LogLevelDebug    LogLevel = "DEBUG"
	LogLevelStrategy LogLevel = "STRATEGY"
	LogLevelExchange LogLevel = "EXCHANGE"
	LogLevelRegime   LogLevel = "REGIME"
	LogLevelRisk     LogLevel = "RISK"
)

// NewLogger creates a new file logger for the specified symbol and interval.
func NewLogger(symbol, interval string) (*Logger, error) {
	return NewLoggerWithDebug(symbol, interval, false)
}

// NewLoggerWithDebug creates a new file logger with debug mode control.
func NewLoggerWithDebug(symbol, interval string, debugMode bool) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s_%s.log", symbol, interval, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.New(file, "", 0)

	l := &Logger{
		symbol:    symbol,
		interval:  interval,
		logFile:   file,
		logger:    logger,
		logDir:    logDir,
		debugMode: debugMode,
	}

	l.writeSessionHeader()

	return l, nil
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
GRID BOT SESSION STARTED
================================================================================
Symbol: %s | Interval: %s
Started: %s
Log File: %s_%s_%s.log
================================================================================
`, l.symbol, l.interval, time.Now().Format("2006-01-02 15:04:05"),
		l.symbol, l.interval, time.Now().Format("2006-01-02"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level.
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	logEntry := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	l.logger.Println(logEntry)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LogLevelDebug, format, args...)
}

func (l *Logger) Strategy(format string, args ...interface{}) {
	l.Log(LogLevelStrategy, format, args...)
}

func (l *Logger) Exchange(format string, args ...interface{}) {
	l.Log(LogLevelExchange, format, args...)
}

// Regime logs a regime-classification-related event.
func (l *Logger) Regime(format string, args ...interface{}) {
	l.Log(LogLevelRegime, format, args...)
}

// Risk logs a risk-controller event (breaker trip, reset, halt).
func (l *Logger) Risk(format string, args ...interface{}) {
	l.Log(LogLevelRisk, format, args...)
}

// LogGridStatus logs a comprehensive banner-block snapshot of the grid's
// current state: anchor, spacing, regime, and open-level count.
func (l *Logger) LogGridStatus(currentPrice, anchor, spacing float64, regimeType string, openLevels int, drawdownPct float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	statusLog := fmt.Sprintf(`
[%s] [STATUS] ==================== GRID STATUS ====================
Current Price: $%.4f | Regime: %s
Anchor: $%.4f | Spacing: %.4f%%
Open Levels: %d | Drawdown: %.2f%%
==========================================================`,
		timestamp, currentPrice, regimeType, anchor, spacing*100, openLevels, drawdownPct*100)

	l.logger.Println(statusLog)
}

// LogLevelFill logs a grid level transitioning to Filled: level ID, side,
// price, size, and regime.
func (l *Logger) LogLevelFill(levelID int, side string, price, size float64, regimeType string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	tradeLog := fmt.Sprintf(`
[%s] [TRADE] ==================== LEVEL FILLED ====================
Level: %d | Side: %s
Price: $%.4f | Size: %.6f %s
Regime: %s
=============================================================`,
		timestamp, levelID, side, price, size, l.symbol, regimeType)

	l.logger.Println(tradeLog)
}

// LogRegimeChange logs a regime transition.
func (l *Logger) LogRegimeChange(from, to string, confidence float64) {
	l.Regime("regime changed: %s -> %s (confidence %.2f)", from, to, confidence)
}

// LogBreakerTrip logs the circuit breaker tripping on a drawdown breach.
func (l *Logger) LogBreakerTrip(drawdownPct, thresholdPct float64) {
	l.Risk("circuit breaker tripped: drawdown %.2f%% >= threshold %.2f%%", drawdownPct*100, thresholdPct*100)
}

// LogError logs an error with context.
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// LogWarning logs a warning with context.
func (l *Logger) LogWarning(context string, message string, args ...interface{}) {
	fullMessage := fmt.Sprintf(context+": "+message, args...)
	l.Warning("%s", fullMessage)
}

// LogErrorWithContext logs detailed error information with context.
func (l *Logger) LogErrorWithContext(context string, err error, additionalInfo map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	errorLog := fmt.Sprintf(`
[%s] [ERROR] ==================== ERROR DETAILS ====================
Context: %s
Error: %v`, timestamp, context, err)

	if len(additionalInfo) > 0 {
		errorLog += "\nAdditional Info:"
		for key, value := range additionalInfo {
			errorLog += fmt.Sprintf(`
  - %s: %v`, key, value)
		}
	}

	errorLog += "\n============================================================="

	l.logger.Println(errorLog)
}

// LogPerformanceMetrics logs performance and timing information.
func (l *Logger) LogPerformanceMetrics(operation string, duration time.Duration, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	perfLog := fmt.Sprintf(`
[%s] [DEBUG] ==================== PERFORMANCE METRICS ====================
Operation: %s | Duration: %v`, timestamp, operation, duration)

	if len(details) > 0 {
		perfLog += "\nDetails:"
		for key, value := range details {
			perfLog += fmt.Sprintf(`
  - %s: %v`, key, value)
		}
	}

	perfLog += "\n============================================================="

	l.logger.Println(perfLog)
}

// LogStateChange logs important state changes, only while debug mode is on.
func (l *Logger) LogStateChange(component string, oldState, newState interface{}, reason string) {
	if !l.debugMode {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	stateLog := fmt.Sprintf(`
[%s] [DEBUG] ==================== STATE CHANGE ====================
Component: %s
Old State: %v
New State: %v
Reason: %s
=============================================================`,
		timestamp, component, oldState, newState, reason)

	l.logger.Println(stateLog)
}

// SetDebugMode enables or disables debug logging.
func (l *Logger) SetDebugMode(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMode = enabled
}

// IsDebugMode returns whether debug mode is enabled.
func (l *Logger) IsDebugMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debugMode
}

// LogDebugOnly logs only when debug mode is enabled.
func (l *Logger) LogDebugOnly(format string, args ...interface{}) {
	if l.debugMode {
		l.Debug(format, args...)
	}
}

// Close closes the log file, writing a session-end footer first.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		footer := fmt.Sprintf(`
================================================================================
GRID BOT SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, timestamp)
		l.logger.Print(footer)

		return l.logFile.Close()
	}
	return nil
}

// GetLogPath returns the current log file path.
func (l *Logger) GetLogPath() string {
	return l.logFile.Name()
}
