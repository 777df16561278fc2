package main

import (
	"Tracks_Transfer/config"
	"Tracks_Transfer/internal/task"
	"Tracks_Transfer/pkg/database"
	"Tracks_Transfer/pkg/database/memory"
	"Tracks_Transfer/pkg/database/mongo"
	"Tracks_Transfer/pkg/logger"
	"Tracks_Transfer/pkg/transfer"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	}
	os.Exit(code)
}

// run 返回进程退出码；所有 defer 都在 main 调用 os.Exit 之前执行完。
func run() (int, error) {
	// --- 1. 定义命令行参数 ---
	action := flag.String("action", "transfer", "要执行的操作: transfer, preview, history")
	source := flag.String("source", "", "提供曲名的源目录 (默认取 config.yaml 中的 transfer.sourceDir)")
	target := flag.String("target", "", "需要重命名的目标目录 (默认取 config.yaml 中的 transfer.targetDir)")
	strict := flag.Bool("strict", false, "曲目编号不一致时报错而不是静默跳过")
	dryRun := flag.Bool("dry-run", false, "只打印重命名计划，不修改文件")
	configDir := flag.String("config", ".", "config.yaml 所在目录")
	page := flag.Int("page", 1, "history 分页页码")
	limit := flag.Int("limit", 20, "history 每页数量")

	flag.Parse()

	// --- 2. 初始化应用核心组件 ---
	if err := config.LoadConfig(*configDir); err != nil {
		return 1, fmt.Errorf("无法加载配置: %w", err)
	}
	cleanup, err := logger.InitLogger()
	if err != nil {
		return 1, fmt.Errorf("无法初始化日志: %w", err)
	}
	defer cleanup()

	// 命令行参数覆盖配置文件
	cfg := config.C.Transfer
	if *source != "" {
		cfg.SourceDir = *source
	}
	if *target != "" {
		cfg.TargetDir = *target
	}
	if *strict {
		cfg.Strict = true
	}
	if *dryRun {
		cfg.DryRun = true
	}

	ctx := context.Background()
	db, err := openStore(ctx)
	if err != nil {
		return 1, fmt.Errorf("无法连接到数据库: %w", err)
	}
	defer db.Close(ctx)

	transferer := transfer.NewTransferer(transfer.OptionsFromConfig(cfg), slog.Default())

	// --- 3. 根据 action 参数执行相应的功能 ---
	switch *action {
	case "transfer":
		manager := task.NewManager(transferer, db, slog.Default())
		taskID, err := manager.StartTransferTask(cfg.SourceDir, cfg.TargetDir, cfg.DryRun)
		if err != nil {
			return 1, err
		}
		t, err := manager.Wait(ctx, taskID)
		if err != nil {
			return 1, err
		}
		if t.Result != nil {
			printResult(t.Result)
		}
		if t.Status == task.StatusFailed {
			return 1, errors.New(t.Error)
		}

	case "preview":
		res, err := transferer.Plan(cfg.SourceDir, cfg.TargetDir)
		if res != nil {
			printResult(res)
		}
		if err != nil {
			return 1, err
		}

	case "history":
		records, total, err := db.Transfers().List(ctx, *page, *limit)
		if err != nil {
			return 1, err
		}
		fmt.Printf("总共 %d 条迁移记录 (第 %d 页，每页 %d 条):\n", total, *page, *limit)
		for _, r := range records {
			fmt.Printf("%s  %-9s  %s -> %s  重命名 %d/%d\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), r.Status, r.SourceDir, r.TargetDir, r.Applied, len(r.Renames))
			if r.Error != "" {
				fmt.Printf("    错误: %s\n", r.Error)
			}
		}

	default:
		fmt.Printf("错误: 未知的 action '%s'\n", *action)
		flag.Usage()
		return 2, nil
	}
	return 0, nil
}

// openStore 未配置 database.uri 时使用内存存储，历史只在本次进程内可见。
func openStore(ctx context.Context) (database.Store, error) {
	if config.C.Database.URI == "" {
		return memory.NewStore(), nil
	}
	db, err := mongo.NewStore(ctx, config.C)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func printResult(res *transfer.Result) {
	if res.Mismatch {
		fmt.Printf("曲目编号不一致，未做任何重命名。目标目录缺少: %v，多出: %v\n", res.Missing, res.Extra)
		return
	}
	for _, r := range res.Renames {
		if r.Unchanged {
			fmt.Printf("  = %s\n", filepath.Base(r.From))
			continue
		}
		fmt.Printf("  %s -> %s\n", filepath.Base(r.From), filepath.Base(r.To))
	}
	if res.DryRun {
		fmt.Printf("预览完成，共 %d 个文件\n", len(res.Renames))
	} else {
		fmt.Printf("已重命名 %d / %d 个文件\n", res.Applied, len(res.Renames))
	}
}
