package main

import (
	"fmt"

	"github.com/iabetor/feedrelay/internal/config"
	"github.com/iabetor/feedrelay/internal/handler"
	"github.com/iabetor/feedrelay/internal/logger"
	"github.com/iabetor/feedrelay/internal/rss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

type options struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "feedrelay",
		Short:         "RSS feed relay",
		Long:          "feedrelay fetches a fixed set of RSS feeds and serves the merged articles as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "配置文件路径，为空使用内置默认配置")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "加载的 .env 文件，为空时尝试当前目录的 .env")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newFetchCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feedrelay %s (commit: %s)\n", version, commit)
		},
	})
	return root
}

// load 依次加载 .env、配置文件并初始化日志。
func (o *options) load() error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return fmt.Errorf("加载 %s 失败: %w", o.envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	o.cfg = cfg
	return nil
}

// newFeedHandler 按配置组装 Extractor → Fetcher → Aggregator → FeedHandler。
func newFeedHandler(cfg *config.Config) (*handler.FeedHandler, error) {
	extractor, err := rss.NewExtractor(cfg.Parser.Mode)
	if err != nil {
		return nil, err
	}
	sources := cfg.SourceTable()
	fetcher := rss.NewFetcher(extractor, cfg.FetcherOptions())
	return handler.NewFeedHandler(rss.NewAggregator(sources, fetcher), sources.Len()), nil
}
