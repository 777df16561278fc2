// 文件: cmd/transfer-server/main.go
package main

import (
	"Tracks_Transfer/config"
	"Tracks_Transfer/internal/api"
	"Tracks_Transfer/internal/task"
	"Tracks_Transfer/pkg/database"
	"Tracks_Transfer/pkg/database/memory"
	"Tracks_Transfer/pkg/database/mongo"
	"Tracks_Transfer/pkg/logger"
	"Tracks_Transfer/pkg/transfer"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

func main() {
	// --- 1. 初始化 ---
	if err := config.LoadConfig("."); err != nil {
		log.Fatalf("FATAL: 无法加载配置: %v", err)
	}
	cleanup, err := logger.InitLogger()
	if err != nil {
		log.Fatalf("FATAL: 无法初始化日志: %v", err)
	}
	defer cleanup()
	slog.Info("应用启动")
	defer slog.Info("应用关闭")

	// --- 2. 连接数据库 ---
	ctx := context.Background()
	var db database.Store
	if config.C.Database.URI == "" {
		slog.Warn("未配置 database.uri，迁移历史只保存在内存中")
		db = memory.NewStore()
	} else {
		db, err = mongo.NewStore(ctx, config.C)
		if err != nil {
			slog.Error("FATAL: 无法连接到数据库", "error", err)
			os.Exit(1)
		}
	}
	defer db.Close(ctx)
	if err := db.EnsureIndexes(ctx); err != nil {
		slog.Error("FATAL: 无法创建/验证数据库索引", "error", err)
		os.Exit(1)
	}

	// --- 3. 创建核心服务实例 ---
	transferer := transfer.NewTransferer(transfer.OptionsFromConfig(config.C.Transfer), slog.Default())
	taskManager := task.NewManager(transferer, db, slog.Default())
	slog.Info("任务管理器创建成功")

	// --- 4. 设置并启动HTTP服务器 ---
	router := api.RegisterRoutes(taskManager, transferer, db, filepath.Join(".", "config.yaml"))

	server := &http.Server{
		Addr:         config.C.Server.Port,
		Handler:      router,
		ReadTimeout:  config.C.Server.Timeout,
		WriteTimeout: config.C.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("正在关闭HTTP服务器...")
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP服务器正在启动...", "地址", config.C.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("无法启动HTTP服务器", "error", err)
		os.Exit(1)
	}
}
