package debug

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (startup, link state, errors)
	LevelLive    = 2 // Live info (commands sent, drives applied)
	LevelVerbose = 3 // Verbose (samples, zones, pair details)
	LevelTrace   = 4 // Trace (GPIO, very low level)
)

var (
	level  atomic.Int32
	logger atomic.Pointer[zap.SugaredLogger]

	outMu sync.Mutex
	out   io.Writer = os.Stdout
	file  *lumberjack.Logger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (startup, link state)
// 2 = live info (commands, drives)
// 3 = verbose (samples, zones, calculated pairs)
// 4 = trace (GPIO, very low level)
func Init(debugLevel int) {
	level.Store(int32(debugLevel))
	rebuild()
}

// SetOutput redirects console output to w (e.g. stdout plus the SSE broadcaster).
func SetOutput(w io.Writer) {
	outMu.Lock()
	out = w
	outMu.Unlock()
	rebuild()
}

// SetLogFile adds a size-rotated log file next to the console output.
// An empty path disables file logging.
func SetLogFile(path string, maxSizeMB int) {
	outMu.Lock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if path != "" {
		if maxSizeMB <= 0 {
			maxSizeMB = 10
		}
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: 3,
			MaxAge:     28,
		}
	}
	outMu.Unlock()
	rebuild()
}

func rebuild() {
	if Level() <= LevelOff {
		logger.Store(nil)
		return
	}

	outMu.Lock()
	ws := zapcore.AddSync(out)
	if file != nil {
		ws = zapcore.NewMultiWriteSyncer(ws, zapcore.AddSync(file))
	}
	outMu.Unlock()

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, ws, zapcore.DebugLevel)
	logger.Store(zap.New(core).Named("GoRover").Sugar())
}

// Level returns the current debug level.
func Level() int {
	return int(level.Load())
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return Level() >= minLevel
}

func logf(minLevel int, format string, args ...interface{}) {
	if Level() < minLevel {
		return
	}
	if l := logger.Load(); l != nil {
		l.Infof(format, args...)
	}
}

// Sync flushes buffered output. Call before exit.
func Sync() {
	if l := logger.Load(); l != nil {
		_ = l.Sync()
	}
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	logf(LevelInfo, "[INFO] "+format, args...)
}

// Summary prints an important summary (level 1).
func Summary(title string) {
	logf(LevelInfo, "═══════════════════════════════════════")
	logf(LevelInfo, "  %s", title)
	logf(LevelInfo, "═══════════════════════════════════════")
}

// Link prints a link state transition (level 1).
func Link(state string, peer string) {
	logf(LevelInfo, "[INFO] Link %s (%s)", state, peer)
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	logf(LevelLive, "[LIVE] "+format, args...)
}

// Move prints a motor speed change (level 2).
func Move(motor string, speed float64) {
	logf(LevelLive, "[LIVE] Motor %s: %.1f%%", motor, speed)
}

// Command prints a command being sent or executed (level 2).
func Command(direction, name string) {
	logf(LevelLive, "[LIVE] Command %s: %s", direction, name)
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	logf(LevelVerbose, "[VERBOSE] "+format, args...)
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	logf(LevelVerbose, "[VERBOSE] %s: %+v", name, v)
}

// Section prints a section separator (level 3).
func Section(name string) {
	logf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logf(LevelVerbose, "  %s", name)
	logf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	logf(LevelVerbose, "[VERBOSE] Step %d: %s", num, description)
}

// Value prints a named value (level 1).
func Value(name string, value interface{}) {
	logf(LevelInfo, "[INFO]   %s = %v", name, value)
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace).
func Trace(format string, args ...interface{}) {
	logf(LevelTrace, "[TRACE] "+format, args...)
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	logf(LevelTrace, "[GPIO] %s pin=%d value=%v", operation, pin, value)
}

// --- General functions ---

// Error prints an error (level 1+).
func Error(err error) {
	logf(LevelInfo, "[ERROR] %v", err)
}
