package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webweaver/internal/artifact"
	"webweaver/internal/config"
	"webweaver/internal/handler"
	"webweaver/internal/imagesearch"
	"webweaver/internal/model"
	"webweaver/internal/publish"
	"webweaver/internal/service"
	"webweaver/internal/storage"
	"webweaver/internal/tools"
	"webweaver/pkg/logger"
)

type app struct {
	siteService *service.SiteService
	closers     []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func main() {
	var (
		configPath string
		prompt     string
		theme      string
		header     string
		hero       string
		footer     string
	)
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.StringVar(&prompt, "prompt", "", "单次生成的网站描述，设置后不启动 HTTP 服务")
	flag.StringVar(&theme, "theme", "", "主题：Light, Dark, Modern Blue, Minimal")
	flag.StringVar(&header, "header", "", "页眉文字")
	flag.StringVar(&hero, "hero", "", "首屏文字")
	flag.StringVar(&footer, "footer", "", "页脚文字")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// 初始化日志
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to init application: %v", err)
	}

	if prompt != "" {
		code := runOnce(ctx, a, &model.GenerateRequest{
			Prompt: prompt,
			Theme:  theme,
			Header: header,
			Hero:   hero,
			Footer: footer,
		})
		a.Close()
		os.Exit(code)
	}

	serve(cfg, a)
	a.Close()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	store, err := newHistoryStore(cfg.History)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { store.Close() })

	var imageOpts []imagesearch.Option
	if cfg.Cache.Enabled {
		cache := imagesearch.NewRedisCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.Prefix)
		if err := cache.Ping(ctx); err != nil {
			logger.Warnf("redis cache unavailable, image lookups will not be cached: %v", err)
			cache.Close()
		} else {
			imageOpts = append(imageOpts, imagesearch.WithCache(cache, cfg.Cache.TTL))
			a.closers = append(a.closers, func() { cache.Close() })
		}
	}
	images := imagesearch.NewClient(cfg.Image, imageOpts...)

	var publisher publish.Publisher
	s3Publisher, err := publish.New(ctx, cfg.Publish)
	if err != nil {
		return nil, err
	}
	if s3Publisher != nil {
		publisher = s3Publisher
	}

	mcpSet := tools.LoadMCPTools(ctx, cfg.MCP)
	a.closers = append(a.closers, mcpSet.Close)

	agentTools := tools.GetTools(ctx, cfg, tools.NewCollyAnalyzer(cfg.Crawl), mcpSet)
	if !cfg.Agent.EnableTools {
		agentTools = nil
	}

	chatModel, err := model.NewChatModel(ctx, cfg, agentTools)
	if err != nil {
		return nil, err
	}

	driver, err := service.NewAgentDriver(ctx, chatModel, agentTools, cfg.Agent)
	if err != nil {
		return nil, err
	}

	writer := artifact.NewWriter(artifact.NewWorkspace(cfg.Output.Dir, cfg.Output.ArchiveName), images)
	a.siteService = service.NewSiteService(driver, writer, store, publisher, cfg.Server.GenerateTimeout)
	return a, nil
}

func newHistoryStore(cfg config.HistoryConfig) (storage.HistoryStore, error) {
	var store storage.HistoryStore
	switch cfg.Type {
	case "memory":
		store = storage.NewMemoryStorage()
	case "disk", "":
		store = storage.NewDiskStorage(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", cfg.Type)
	}
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

// runOnce 命令行模式：生成一次，打印报告
func runOnce(ctx context.Context, a *app, req *model.GenerateRequest) int {
	report, err := a.siteService.Generate(ctx, req)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(report)
	}
	if err != nil {
		logger.Errorf("generation failed: %v", err)
		return 1
	}
	return 0
}

func serve(cfg *config.Config, a *app) {
	router := handler.NewRouter(cfg, handler.NewSiteHandler(a.siteService), handler.NewHistoryHandler(a.siteService))

	// 创建HTTP服务器
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// 等待信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
