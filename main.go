package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cleanuri/pkg/api"
	"cleanuri/pkg/cache"
	"cleanuri/pkg/config"
	"cleanuri/pkg/extract"
	"cleanuri/pkg/logger"
	_ "cleanuri/pkg/scrapers/all"
	"cleanuri/pkg/site"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	logger.SetDefault(zl)
	defer logger.SetDefault(zap.NewNop())

	productCache, err := cache.New(cfg.Cache.Path, cfg.Cache.TTL, zl)
	if err != nil {
		zl.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer productCache.Close()

	if purged, err := productCache.Purge(context.Background()); err != nil {
		zl.Warn("Cache purge failed", zap.Error(err))
	} else if purged > 0 {
		zl.Info("Purged expired cache entries", zap.Int64("entries", purged))
	}
	zl.Info("Cache initialized", zap.String("path", cfg.Cache.Path), zap.Duration("ttl", cfg.Cache.TTL))

	svc := newService(cfg, productCache, zl)
	if _, err := svc.Sites(context.Background()); err != nil {
		zl.Fatal("Site discovery failed", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(api.RouterConfig{
		Service:        svc,
		Logger:         zl,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SpecDir:        "./",
	})

	port := cfg.Server.Port
	ip := GetOutboundIP()
	if ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), port)
	} else {
		fmt.Println("Could not determine local IP address.")
	}
	fmt.Printf("Access URL: http://localhost:%s\n", port)
	fmt.Printf("API Docs: http://localhost:%s/\n", port)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Extract.Timeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lc := logger.DefaultConfig()
	if cfg.IsProduction() {
		lc = logger.ProductionConfig()
	}
	if cfg.Log.Level != "" {
		lc.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	return logger.New(lc)
}

func newService(cfg *config.Config, results extract.ResultCache, zl *zap.Logger) *extract.Service {
	loader := site.NewLoader(site.WithReporter(func(d site.Descriptor) {
		fields := []zap.Field{zap.String("site", d.Label())}
		if u, ok := d.Site(); ok {
			fields = append(fields, zap.Stringer("url", u))
		}
		if !cfg.SiteEnabled(d.Label()) {
			fields = append(fields, zap.Bool("disabled", true))
		}
		zl.Info("Discovered site", fields...)
	}))

	return extract.NewService(loader, cfg.Extract,
		extract.WithCache(results),
		extract.WithSiteFilter(cfg.SiteEnabled),
		extract.WithLogger(zl),
	)
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP
}
