package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/webscout/web-mcp-server/configs"
	"github.com/webscout/web-mcp-server/internal/app"
	"github.com/webscout/web-mcp-server/internal/audit"
	"github.com/webscout/web-mcp-server/internal/config"
	"github.com/webscout/web-mcp-server/internal/httpx"
	"github.com/webscout/web-mcp-server/internal/log"
	"github.com/webscout/web-mcp-server/internal/render"
	"github.com/webscout/web-mcp-server/internal/runtime"
	"github.com/webscout/web-mcp-server/internal/settings"
	"github.com/webscout/web-mcp-server/internal/tools/fetch"
	"github.com/webscout/web-mcp-server/internal/webcache"
)

func main() {
	embeddedConfig := flag.String("embedded-config", "", "Use embedded config from configs/ (filename)")
	flag.Parse()

	envCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(envCfg.LogLevel)

	rendered, err := renderConfig(*embeddedConfig, envCfg.ConfigPath)
	if err != nil {
		logger.Error("render config failed", "error", err)
		os.Exit(1)
	}

	cfg, err := settings.Load(rendered)
	if err != nil {
		logger.Error("parse config failed", "error", err)
		os.Exit(1)
	}

	client := httpx.New(httpx.Options{
		Timeout:           settings.Duration(cfg.HTTPClient.Timeout, 30*time.Second),
		UserAgent:         cfg.HTTPClient.UserAgent,
		MaxResponseBytes:  cfg.HTTPClient.MaxResponseBytes,
		RatePerHost:       cfg.HTTPClient.RatePerHost,
		MaxRedirects:      cfg.HTTPClient.MaxRedirects,
		AllowPrivateHosts: cfg.HTTPClient.AllowPrivateHosts,
	})

	var cache *webcache.Cache[fetch.Page]
	if cfg.Cache.Enabled {
		ttl, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			logger.Error("invalid cache ttl", "error", err)
			os.Exit(1)
		}
		cache = webcache.New[fetch.Page](ttl, cfg.Cache.MaxEntries)
	}

	builder := runtime.Builder{
		Logger:   logger,
		Audit:    audit.New(logger),
		Settings: cfg,
		Client:   client,
		Cache:    cache,
	}
	server, err := builder.Build()
	if err != nil {
		logger.Error("build server failed", "error", err)
		os.Exit(1)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		logger.Warn("shutdown requested", "signal", sig.String())
		cancel()
	}()

	switch cfg.Server.Transport {
	case "stdio":
		if err := runStdio(baseCtx, server); err != nil {
			logger.Error("runtime error", "error", err)
			os.Exit(1)
		}
		return
	default:
		if err := runHTTP(baseCtx, envCfg, cfg, server, logger); err != nil {
			logger.Error("runtime error", "error", err)
			os.Exit(1)
		}
	}
}

// renderConfig renders the chosen embedded config, or the config file
// from disk, falling back to the embedded default when the file is
// absent.
func renderConfig(embeddedName, configPath string) ([]byte, error) {
	if embeddedName != "" {
		raw, err := configs.Load(embeddedName)
		if err != nil {
			return nil, err
		}
		return render.Bytes(embeddedName, raw)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		raw, err := configs.Load("default.yaml")
		if err != nil {
			return nil, err
		}
		return render.Bytes("default.yaml", raw)
	}
	return render.File(configPath)
}

func runStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func runHTTP(ctx context.Context, envCfg config.Config, cfg *settings.Settings, server *mcp.Server, logger *slog.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless: cfg.Server.HTTP.Stateless,
	})

	application, err := app.New(ctx, cfg.Server, handler, logger, envCfg.ShutdownTimeout)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
