package logger

import (
	"Tracks_Transfer/config"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const logFileName = "transfer.log"

// InitLogger 根据 config.yaml 中的配置初始化一个全局的 slog 日志记录器。
// 配置了 logger.path 时日志同时追加写入该目录下的 transfer.log，返回的 cleanup 负责关闭该文件。
func InitLogger() (cleanup func(), err error) {
	cleanup = func() {}
	var out io.Writer = os.Stdout

	if config.C.Logger.Path != "" {
		logDir, err := filepath.Abs(config.C.Logger.Path)
		if err != nil {
			return cleanup, fmt.Errorf("无法获取日志目录绝对路径: %w", err)
		}
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return cleanup, fmt.Errorf("无法创建日志目录: %w", err)
		}
		file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return cleanup, fmt.Errorf("无法打开日志文件: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		cleanup = func() { file.Close() }
	}

	l, err := New(config.C.Logger, out)
	if err != nil {
		cleanup()
		return func() {}, err
	}
	slog.SetDefault(l)
	return cleanup, nil
}

// New 按配置的级别和格式 (text 或 json) 创建一个写入 w 的 logger。
func New(cfg config.LoggerConfig, w io.Writer) (*slog.Logger, error) {
	logLevel := new(slog.LevelVar)
	if err := setLogLevel(cfg.Level, logLevel); err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var logHandler slog.Handler
	if cfg.Format == "json" {
		logHandler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		logHandler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(logHandler), nil
}

// setLogLevel 将字符串形式的日志级别转换为 slog.Level 类型
func setLogLevel(levelStr string, levelVar *slog.LevelVar) error {
	switch levelStr {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info":
		levelVar.Set(slog.LevelInfo)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		return errors.New("无效的日志级别: " + levelStr)
	}
	return nil
}

// Discard 返回一个丢弃所有日志的 logger，主要用于测试。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
