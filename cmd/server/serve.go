package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasker/api/handler"
	"github.com/fastygo/tasker/internal/config"
	"github.com/fastygo/tasker/internal/infrastructure/kv"
	"github.com/fastygo/tasker/internal/infrastructure/monitor"
	"github.com/fastygo/tasker/internal/metrics"
	"github.com/fastygo/tasker/internal/middleware"
	"github.com/fastygo/tasker/internal/router"
	"github.com/fastygo/tasker/internal/services"
	"github.com/fastygo/tasker/internal/services/lifecycle"
	"github.com/fastygo/tasker/pkg/httpcontext"
	"github.com/fastygo/tasker/repository/kvstore"
	authUC "github.com/fastygo/tasker/usecase/auth"
	taskUC "github.com/fastygo/tasker/usecase/task"
)

func serve(parent context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	appCtx, cancel := context.WithCancel(parent)
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	backend, err := kv.Open(appCtx, cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	manager.Register("storage", func(context.Context) error {
		return backend.Close()
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	mon := monitor.New(backend, cfg.Storage.Driver, 10*time.Second, collector, zapLogger)
	manager.Add("monitor", func(context.Context) error {
		mon.Start()
		return nil
	}, func(context.Context) error {
		mon.Stop()
		return nil
	})

	events := services.NewEventLog(64, zapLogger.Named("events"))
	sessions := kvstore.NewSessionRepository(backend)
	taskRepo := kvstore.NewTaskRepository(backend)

	authManager := authUC.New(sessions, taskRepo, zapLogger.Named("auth"), authUC.Options{
		EmailLatency:   cfg.Auth.EmailLatency,
		SocialLatency:  cfg.Auth.SocialLatency,
		StorageTimeout: cfg.Storage.OpTimeout,
		Notifier:       events,
		Recorder:       collector,
	})
	taskStore := taskUC.New(taskRepo, zapLogger.Named("tasks"), taskUC.Options{Recorder: collector})
	workspace := services.NewWorkspace(authManager, taskStore, zapLogger, cfg.Storage.OpTimeout)
	manager.Add("workspace", func(ctx context.Context) error {
		restoreCtx, cancel := context.WithTimeout(ctx, cfg.Storage.OpTimeout)
		defer cancel()
		return workspace.Init(restoreCtx)
	}, func(context.Context) error {
		workspace.Close()
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(workspace, events, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(workspace, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	if cfg.HTTP.EnableMetrics {
		handlers.Metrics = metrics.Handler(reg)
	}
	r := router.New(handlers)

	var limit func(fasthttp.RequestHandler) fasthttp.RequestHandler
	if cfg.RateLimit.Enabled {
		limit = middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst), zapLogger)
	}

	server := &fasthttp.Server{
		Handler:      router.Chain(r.Handler, middleware.Recover(zapLogger), middleware.AccessLog(collector, zapLogger), limit),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	serveErr := make(chan error, 1)
	manager.Add("http_server", func(context.Context) error {
		go func() {
			zapLogger.Info("server started",
				zap.String("address", cfg.Address()),
				zap.String("storage", cfg.Storage.Driver))
			if err := server.ListenAndServe(cfg.Address()); err != nil {
				serveErr <- err
				cancel()
			}
		}()
		return nil
	}, func(context.Context) error {
		return server.Shutdown()
	})

	if err := manager.Start(appCtx); err != nil {
		return err
	}

	<-appCtx.Done()

	shutdownErr := manager.Shutdown(context.Background())
	if shutdownErr != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(shutdownErr))
	}
	select {
	case err := <-serveErr:
		return fmt.Errorf("server crashed: %w", err)
	default:
		return shutdownErr
	}
}

func splitAddr(addr string) (string, string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	return host, port, nil
}
