package main

import (
	"github.com/rs/zerolog/log"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/config"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
	clog "github.com/shanghai-romance-0210/dark-matter-world/internal/log"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/server"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/ws"
)

func main() {
	// main 函数负责加载配置、初始化日志、打开文档存储并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)

	store, err := docstore.Open(cfg.DatabaseDSN, cfg.SnapshotBacklog)
	if err != nil {
		log.Fatal().Err(err).Msg("docstore open")
	}

	hub := ws.NewHub()
	r := server.SetupRouter(cfg, store, hub)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
