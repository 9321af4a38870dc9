package utils

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LoggerNameHTTP      = "http"
	LoggerNameDatabase  = "database"
	LoggerNameBooking   = "booking"
	LoggerNameAppliance = "appliance"
	LoggerNamePayment   = "payment"
	LoggerNameScheduler = "scheduler"
)

var (
	logger *zap.Logger
	once   sync.Once
	mu     sync.RWMutex

	logDir     = "logs"
	production = false
)

// ConfigureLogger sets where logs go; it only has effect before the first GetLogger call
func ConfigureLogger(dir string, isProduction bool) {
	mu.Lock()
	defer mu.Unlock()
	if dir != "" {
		logDir = dir
	}
	production = isProduction
}

func getLogger() *zap.Logger {
	once.Do(initLogger)
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func GetLogger() *zap.Logger {
	return getLogger().Named("default")
}

func GetLoggerWith(name string, fields ...zap.Field) *zap.Logger {
	return getLogger().Named(name).With(fields...)
}

func initLogger() {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		log.Fatalf("Error find/create logs directory: %v", err)
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)

	if production {
		logger = zap.New(fileCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		return
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel)
	logger = zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// SyncLogger flushes buffered entries, called on shutdown
func SyncLogger() {
	_ = getLogger().Sync()
}

func SetTestCaptureLogger(buf *bytes.Buffer, level zapcore.Level) {
	once.Do(func() {})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(buf), level)

	mu.Lock()
	logger = zap.New(core)
	mu.Unlock()
}

func SetTestLoggerNop() {
	once.Do(func() {})

	mu.Lock()
	logger = zap.NewNop()
	mu.Unlock()
}
