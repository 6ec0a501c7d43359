package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/iabetor/feedrelay/internal/logger"
	"github.com/iabetor/feedrelay/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			h, err := newFeedHandler(cfg)
			if err != nil {
				return err
			}

			logger.Infof("[main] feedrelay 启动中 (addr=%s, path=%s, sources=%d, parser=%s)",
				cfg.Server.Addr, cfg.Server.Path, len(cfg.Sources), cfg.Parser.Mode)

			// 监听系统信号，优雅关闭
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			if err := server.Run(ctx, cfg.Server.Addr, server.NewRouter(cfg.Server, h)); err != nil {
				return err
			}

			logger.Infof("[main] feedrelay 已停止")
			return nil
		},
	}
}
