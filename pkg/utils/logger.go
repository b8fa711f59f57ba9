// Package utils предоставляет файловый логгер и graceful shutdown для CLI утилит.
//
// Логгер пишет JSON строки (zerolog) в .log файл с timestamp в имени.
// До вызова InitLogger все вызовы Info/Error/... — no-op, stdout утилиты остаётся чистым.
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logFile     *os.File
	logger      = zerolog.Nop()
	logMutex    sync.Mutex
	initialized bool
)

// InitLogger создает/открывает .log файл в директории dir.
//
// Имя файла: paapi-YYYY-MM-DD-HH-MM.log. Пустой dir — текущая директория.
// debug=false отбрасывает Debug сообщения.
func InitLogger(dir string, debug bool) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if initialized {
		return nil
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("paapi-%s.log", time.Now().Format("2006-01-02-15-04")))

	var err error
	logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	setOutput(logFile, debug)
	initialized = true
	logger.Info().Str("file", filename).Msg("Logger initialized")

	return nil
}

// setOutput переключает логгер на w. Вызывается под logMutex.
func setOutput(w io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	emit(zerolog.InfoLevel, msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	emit(zerolog.ErrorLevel, msg, keyvals...)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	emit(zerolog.DebugLevel, msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	emit(zerolog.WarnLevel, msg, keyvals...)
}

// emit пишет сообщение с парами key=value. Непарный последний ключ отбрасывается.
func emit(level zerolog.Level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	fields := make([]any, 0, len(keyvals))
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields = append(fields, fmt.Sprint(keyvals[i]), keyvals[i+1])
	}

	logger.WithLevel(level).Fields(fields).Msg(msg)
}

// Close закрывает лог-файл.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	logger = zerolog.Nop()
	initialized = false

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
	}
}
