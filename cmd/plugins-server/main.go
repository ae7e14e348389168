package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dprint/plugins/internal/clock"
	"github.com/dprint/plugins/internal/config"
	"github.com/dprint/plugins/internal/fetch"
	"github.com/dprint/plugins/internal/metrics"
	"github.com/dprint/plugins/internal/server"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "dev"

func setupLogger(cfg *config.ServerConfig) (*logrus.Logger, error) {
	log := logrus.New()
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		}))
	}
	return log, nil
}

func run(log *logrus.Logger, cfg *config.ServerConfig) error {
	if cfg.GitHubToken == "" {
		log.Warn("DPRINT_PLUGINS_GH_TOKEN is not set, GitHub requests are unauthenticated")
	}
	log.Println("setting up GitHub client...")
	ghClient, err := cfg.CreateGitHubClient(log)
	if err != nil {
		return err
	}

	if !cfg.DisableMetrics {
		log.Println("setting up metrics exporter...")
		exporter, err := metrics.NewExporter(cfg.ProjectID, cfg.Stage)
		if err != nil {
			return err
		}
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()
	}

	fetcher := fetch.New(clock.Real{}, fetch.WithLogger(log), fetch.WithRetryMax(cfg.FetchRetryMax))

	log.Println("starting server...")
	srv := &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           server.New(log, ghClient, fetcher, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Error(err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	log.Println("stopping server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); errors.Is(err, context.DeadlineExceeded) {
		log.Println("closing server...")
		if closeErr := srv.Close(); closeErr != nil {
			return closeErr
		}
	} else if err != nil {
		return err
	}
	log.Println("server stopped!")
	return nil
}

func main() {
	cfg, err := config.NewServerConfigFromEnv()
	if err != nil {
		logrus.Fatal(err)
	}
	cfg.Version = version

	log, err := setupLogger(cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	log.Infof("starting plugins-server (version=%s, stage=%s)", version, cfg.Stage)
	if err := run(log, cfg); err != nil {
		log.Fatal(err)
	}
}
