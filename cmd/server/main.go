package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"memshaheb_backend/internal/config"
	"memshaheb_backend/internal/router"
	"memshaheb_backend/internal/task"
	"memshaheb_backend/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "memshaheb",
		Usage: "memshaheb 后台服务：画作目录、媒体与 WooCommerce 同步",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "dotenv 配置文件，不存在时只读环境变量",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "启动 HTTP 服务",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "建表并执行补充 SQL 后退出",
				Action: runMigrate,
			},
			{
				Name:  "create-admin",
				Usage: "创建初始管理员（已存在则跳过）",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "默认取 INITIAL_ADMIN_EMAIL"},
					&cli.StringFlag{Name: "password", Usage: "默认取 INITIAL_ADMIN_PASSWORD"},
					&cli.StringFlag{Name: "name", Usage: "默认取 INITIAL_ADMIN_DISPLAY_NAME"},
				},
				Action: runCreateAdmin,
			},
		},
		DefaultCommand: "serve",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap 加载配置、日志与依赖
func bootstrap(c *cli.Context) (*config.Config, *zap.Logger, *Dependencies, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})

	deps, err := initDependencies(c.Context, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, deps, nil
}

// ==================== serve ====================

func runServe(c *cli.Context) error {
	cfg, log, deps, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer deps.Close()

	// 1. 初始管理员
	if created, err := deps.Services.User.EnsureAdmin(c.Context,
		cfg.InitialAdmin.Email, cfg.InitialAdmin.Password, cfg.InitialAdmin.DisplayName); err != nil {
		log.Warn("初始化管理员失败", zap.Error(err))
	} else if created {
		log.Info("已创建初始管理员", zap.String("email", cfg.InitialAdmin.Email))
	}

	// 2. 定时任务
	tasks := task.NewTaskManager(deps.Services.Sync, task.TaskManagerConfig{
		RetrySchedule:  cfg.WooCommerce.RetrySchedule,
		RetryBatchSize: cfg.WooCommerce.RetryBatchSize,
	}, log)
	if err := tasks.Start(); err != nil {
		return err
	}
	defer tasks.Stop()

	// 3. 限流表清理
	if deps.RateLimiter != nil {
		go sweepRateLimiter(c.Context, deps)
	}

	// 4. 路由
	r := router.SetupRouter(deps.Controllers, router.Options{
		Tokens:          deps.Tokens,
		RateLimiter:     deps.RateLimiter,
		RequestIDHeader: cfg.HTTP.RequestIDHeader,
		CORSOrigins:     cfg.HTTP.CORSAllowOrigins,
		MediaRoot:       deps.MediaRoot,
		Logger:          log,
	})

	return startServer(c.Context, cfg.App.Port, r, log)
}

// startServer 启动服务，ctx 取消后优雅关闭
func startServer(ctx context.Context, port string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}
	log.Info("服务已退出")
	return nil
}

func sweepRateLimiter(ctx context.Context, deps *Dependencies) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			deps.RateLimiter.Sweep(10*time.Minute, now)
		}
	}
}

// ==================== migrate ====================

func runMigrate(c *cli.Context) error {
	_, log, deps, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer deps.Close()

	log.Info("迁移完成")
	return nil
}

// ==================== create-admin ====================

func runCreateAdmin(c *cli.Context) error {
	cfg, log, deps, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer deps.Close()

	email := firstNonEmpty(c.String("email"), cfg.InitialAdmin.Email)
	password := firstNonEmpty(c.String("password"), cfg.InitialAdmin.Password)
	name := firstNonEmpty(c.String("name"), cfg.InitialAdmin.DisplayName)

	created, err := deps.Services.User.EnsureAdmin(c.Context, email, password, name)
	if err != nil {
		return fmt.Errorf("创建管理员失败: %w", err)
	}
	if created {
		log.Info("管理员已创建", zap.String("email", email))
	} else {
		log.Info("管理员已存在，跳过", zap.String("email", email))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
