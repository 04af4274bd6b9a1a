package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/config"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/recompute"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/repository"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入演示 turno 和计划模板, 2: 插入随机员工及其打卡记录, 3: 从 CSV 导入打卡记录)")
	flag.IntVar(&n, "n", 5, "要插入的员工数量")
	flag.StringVar(&file, "file", "", "要导入的 CSV 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("无法加载时区", "error", err)
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	recomputer := recompute.New(repo, repo, repo, loc, logger)

	companyID := cfg.Seed.CompanyID
	ctx = context.Background()

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		policies, template, err := seed.SeedCatalog(ctx, repo, companyID)
		if err != nil {
			slog.Error("无法插入演示数据", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入演示数据成功", slog.Int("policies", len(policies)), slog.Int64("planTemplateID", template.ID))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的员工数量")
			return
		}

		policies, template, err := seed.SeedCatalog(ctx, repo, companyID)
		if err != nil {
			slog.Error("无法插入演示数据", slog.String("error", err.Error()))
			return
		}

		employees, err := seed.SeedEmployees(ctx, repo, companyID, n, cfg.Seed.EmailDomain, policies, template)
		if err != nil {
			slog.Error("无法插入员工", slog.String("error", err.Error()))
			return
		}

		cnt, err := seed.SeedClockEvents(ctx, repo, recomputer, companyID, employees, cfg.Seed.Days, loc, time.Now())
		if err != nil {
			slog.Error("无法插入打卡记录", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入员工及打卡记录成功", slog.Int("employees", len(employees)), slog.Int("events", cnt))
	case 3:
		if file == "" {
			slog.Error("请指定要导入的 CSV 文件")
			return
		}

		f, err := os.Open(file)
		if err != nil {
			slog.Error("打开文件失败", "error", err)
			return
		}
		defer f.Close()

		cnt, err := seed.ImportClockEvents(ctx, repo, recomputer, companyID, f, loc)
		if err != nil {
			slog.Error("导入打卡记录失败", slog.String("error", err.Error()))
			return
		}

		slog.Info("导入打卡记录成功", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
