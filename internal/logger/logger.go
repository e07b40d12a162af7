// internal/logger/logger.go
package logger

import (
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config настройки логгера
type Config struct {
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`    // мегабайты
	MaxAge     int    `mapstructure:"max_age"`     // дни
	MaxBackups int    `mapstructure:"max_backups"` // количество файлов
	Compress   bool   `mapstructure:"compress"`    // сжимать ротированные файлы
	Debug      bool   `mapstructure:"-"`
}

// DefaultConfig возвращает конфигурацию по умолчанию, без файла
func DefaultConfig() Config {
	return Config{
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
	}
}

// New создает логгер: читаемая консоль плюс JSON файл с ротацией, если задан cfg.File
func New(cfg Config) (*zap.Logger, error) {
	return newLogger(cfg, os.Stderr), nil
}

func newLogger(cfg Config, consoleOut io.Writer) *zap.Logger {
	console := newConsoleCore(consoleOut, cfg.Debug)
	if cfg.File == "" {
		return zap.New(console)
	}

	// Настройка ротации логов
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	// В файл пишем все, включая debug
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		zapcore.DebugLevel,
	)

	return zap.New(zapcore.NewTee(console, fileCore),
		zap.AddStacktrace(zapcore.ErrorLevel))
}

// WithOperation добавляет имя операции и correlation_id
func WithOperation(l *zap.Logger, operation string) *zap.Logger {
	return l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
	)
}
