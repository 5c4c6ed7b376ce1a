package main

import (
	"fmt"
	"log"

	"mnist-lab/internal/config"
	"mnist-lab/internal/db"
	"mnist-lab/internal/logger"
	"mnist-lab/internal/router"
	"mnist-lab/internal/service"
	"mnist-lab/internal/store"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	zlog, err := logger.New(cfg.Server.Verbose)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()

	// 初始化数据库
	if err := db.InitDB(cfg, zlog); err != nil {
		zlog.Fatalf("初始化数据库失败: %v", err)
	}

	// 初始化服务
	st := store.New(db.DB, zlog)
	trainer := service.NewSimulatedTrainer(&cfg.Trainer)
	svcCtx := service.NewServiceContext(st, trainer, zlog)

	// 初始化路由
	r := router.SetupRouter(cfg, svcCtx)

	// 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zlog.Infow("服务启动", "addr", addr)
	if err := r.Run(addr); err != nil {
		zlog.Fatalf("启动服务失败: %v", err)
	}
}
