package logging

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации, неизвестные значения дают INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case TRACE:
		return zerolog.TraceLevel
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config задает параметры системы логирования
type Config struct {
	Level     string
	Directory string
	Console   bool
}

// Logger пишет сообщения одного компонента сервера
type Logger struct {
	component string
	zl        atomic.Pointer[zerolog.Logger]
}

var (
	rootMu   sync.RWMutex
	rootLog  = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	logFile  *os.File
	fallback = newLogger("server")
)

// InitLogger инициализирует систему логирования: JSON в файл и читаемый вывод в консоль
func InitLogger(cfg Config) error {
	dir := cfg.Directory
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("server_%s.log", timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	writers := []io.Writer{file}
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level).zerolog())
	zerolog.TimeFieldFormat = time.RFC3339

	root := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Str("app", "blockverse").
		Logger()

	rootMu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = file
	rootLog = root
	rootMu.Unlock()

	GetLoggerManager().rebind()
	fallback.bind()

	Info("Логирование инициализировано, файл %s", filename)
	return nil
}

// SetOutput перенаправляет все логгеры в writer (используется в тестах и утилитах)
func SetOutput(w io.Writer, level LogLevel) {
	zerolog.SetGlobalLevel(level.zerolog())

	rootMu.Lock()
	rootLog = zerolog.New(w).With().Timestamp().Logger()
	rootMu.Unlock()

	GetLoggerManager().rebind()
	fallback.bind()
}

// CloseLogger закрывает файл логов
func CloseLogger() {
	rootMu.Lock()
	defer rootMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func newLogger(component string) *Logger {
	l := &Logger{component: component}
	l.bind()
	return l
}

func (l *Logger) bind() {
	rootMu.RLock()
	zl := rootLog.With().Str("component", l.component).Logger()
	rootMu.RUnlock()
	l.zl.Store(&zl)
}

// Component возвращает имя компонента логгера
func (l *Logger) Component() string {
	return l.component
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) {
	l.zl.Load().Trace().Msgf(format, args...)
}

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Load().Debug().Msgf(format, args...)
}

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Load().Info().Msgf(format, args...)
}

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Load().Warn().Msgf(format, args...)
}

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Load().Error().Msgf(format, args...)
}

// Trace логирует сообщение уровня TRACE от имени сервера
func Trace(format string, args ...interface{}) { fallback.Trace(format, args...) }

// Debug логирует сообщение уровня DEBUG от имени сервера
func Debug(format string, args ...interface{}) { fallback.Debug(format, args...) }

// Info логирует сообщение уровня INFO от имени сервера
func Info(format string, args ...interface{}) { fallback.Info(format, args...) }

// Warn логирует сообщение уровня WARN от имени сервера
func Warn(format string, args ...interface{}) { fallback.Warn(format, args...) }

// Error логирует сообщение уровня ERROR от имени сервера
func Error(format string, args ...interface{}) { fallback.Error(format, args...) }

// HexDump создает hex дамп данных
func HexDump(data []byte) string {
	if len(data) == 0 {
		return "No data"
	}

	// Ограничиваем размер дампа до 256 байт
	size := len(data)
	if size > 256 {
		size = 256
	}

	return hex.Dump(data[:size])
}

// LogProtocolError логирует ошибку разбора пакета вместе с дампом тела
func (l *Logger) LogProtocolError(connID string, err error, data []byte) {
	l.Error("Protocol error from %s: %v", connID, err)
	if len(data) > 0 {
		l.Debug("Raw data (%d bytes):\n%s", len(data), HexDump(data))
	}
}
