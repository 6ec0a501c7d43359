package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/iabetor/feedrelay/internal/logger"
	"github.com/iabetor/feedrelay/internal/rss"
	"gopkg.in/yaml.v3"
)

// Config 是 feedrelay 的顶层配置结构。
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Fetch   FetchConfig    `yaml:"fetch"`
	Parser  ParserConfig   `yaml:"parser"`
	Log     LogConfig      `yaml:"log"`
	Sources []SourceConfig `yaml:"sources"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Path 文章接口路径。
	Path           string   `yaml:"path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// FetchConfig 订阅源抓取配置。
type FetchConfig struct {
	UserAgent string `yaml:"user_agent"`
	// Timeout 为 0 表示不设置超时。
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// ParserConfig 订阅源解析配置。
type ParserConfig struct {
	// Mode: pattern（正则匹配，默认）或 gofeed。
	Mode string `yaml:"mode"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// SourceConfig 单个订阅源。
type SourceConfig struct {
	Key      string `yaml:"key"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// HealthPath 健康检查接口路径，文章接口不能占用。
const HealthPath = "/health"

// DefaultSources 未配置订阅源时使用的订阅源表。
var DefaultSources = []SourceConfig{
	{Key: "tech", URL: "https://firstprinciplesdesign.substack.com/feed", Category: "tech"},
	{Key: "product", URL: "https://whythatworked.substack.com/feed", Category: "product"},
}

// Default 返回全部使用默认值的配置。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load 读取 YAML 配置文件并返回 Config。path 为空时返回默认配置。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置文件 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Path == "" {
		cfg.Server.Path = "/api/rss.json"
	}
	// 环境变量未设置时展开为空串，需要去掉
	origins := cfg.Server.AllowedOrigins[:0]
	for _, o := range cfg.Server.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.Server.AllowedOrigins = origins
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = rss.DefaultUserAgent
	}
	if cfg.Fetch.MaxBodyBytes == 0 {
		cfg.Fetch.MaxBodyBytes = 10 << 20
	}
	if cfg.Parser.Mode == "" {
		cfg.Parser.Mode = rss.ModePattern
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = append([]SourceConfig(nil), DefaultSources...)
	}
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		s.URL = strings.TrimSpace(s.URL)
		if s.Key == "" {
			s.Key = s.Category
		}
	}
}

// Validate 检查配置是否可用。
func (c *Config) Validate() error {
	var errs []error

	if !strings.HasPrefix(c.Server.Path, "/") {
		errs = append(errs, fmt.Errorf("server.path 必须以 / 开头: %q", c.Server.Path))
	}
	if c.Server.Path == HealthPath {
		errs = append(errs, fmt.Errorf("server.path 不能与健康检查路径 %s 相同", HealthPath))
	}
	if _, err := rss.NewExtractor(c.Parser.Mode); err != nil {
		errs = append(errs, fmt.Errorf("parser.mode: %w", err))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout 不能为负数: %s", c.Fetch.Timeout))
	}
	if c.Fetch.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("fetch.max_body_bytes 不能为负数: %d", c.Fetch.MaxBodyBytes))
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Category == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: category 不能为空", i))
		}
		if seen[s.Key] {
			errs = append(errs, fmt.Errorf("sources[%d]: key %q 重复", i, s.Key))
		}
		seen[s.Key] = true

		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: 无效的 url %q", i, s.URL))
		}
	}

	return errors.Join(errs...)
}

// SourceTable 将配置中的订阅源转换为只读订阅源表。
func (c *Config) SourceTable() rss.SourceTable {
	sources := make([]rss.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		sources = append(sources, rss.Source{Key: s.Key, URL: s.URL, Category: s.Category})
	}
	return rss.NewSourceTable(sources)
}

// LoggerConfig 转换为 logger 包的配置。
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}

// FetcherOptions 转换为 rss.Fetcher 的选项。
func (c *Config) FetcherOptions() rss.FetcherOptions {
	return rss.FetcherOptions{
		UserAgent:    c.Fetch.UserAgent,
		Timeout:      c.Fetch.Timeout,
		MaxBodyBytes: c.Fetch.MaxBodyBytes,
	}
}
