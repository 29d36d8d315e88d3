package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"memshaheb_backend/internal/config"
	"memshaheb_backend/internal/controller"
	"memshaheb_backend/internal/middleware"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/internal/router"
	"memshaheb_backend/internal/service"
	"memshaheb_backend/pkg/database"
	"memshaheb_backend/pkg/woocommerce"
)

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	Tokens      *middleware.TokenManager
	RateLimiter *middleware.IPRateLimiter
	MediaRoot   string // 本地存储时的目录
}

// Repositories 仓库集合
type Repositories struct {
	Commerce   *repository.CommerceUnitOfWork
	User       repository.UserRepository
	Media      repository.MediaRepository
	Blogs      repository.BlogRepository
	Categories repository.BlogCategoryRepository
	Museum     repository.MuseumRepository
	Site       repository.SiteRepository
}

// Services 服务集合
type Services struct {
	User     *service.UserService
	Painting *service.PaintingService
	Sync     *service.CommerceSyncService
	Media    *service.MediaService
	Blog     *service.BlogService
	Museum   *service.MuseumService
	Site     *service.SiteService
}

// Close 释放数据库连接
func (d *Dependencies) Close() {
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// ==================== 初始化函数 ====================

// initDependencies 初始化所有依赖
func initDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Dependencies, error) {
	// -------- 数据库 --------
	db, err := initDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{DB: db}

	// -------- Repo 层 --------
	deps.Repos = initRepositories(db)

	// -------- 基础组件 --------
	deps.Tokens = middleware.NewTokenManager(middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		Issuer:          cfg.JWT.Issuer,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
	})

	if cfg.HTTP.RateLimit != "" {
		rule, err := middleware.ParseRateLimit(cfg.HTTP.RateLimit)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.RateLimiter = middleware.NewIPRateLimiter(rule)
	}

	provider, err := initStorage(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	if local, ok := provider.(*service.LocalStorage); ok {
		deps.MediaRoot = local.Root()
	}

	// -------- 业务服务 --------
	deps.Services = initServices(cfg, deps, provider, log)

	// -------- Controller 层 --------
	deps.Controllers = initControllers(cfg, deps, log)
	return deps, nil
}

// initDatabase 连接、建表、补充索引并注册审计回调
func initDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.InitDB(cfg.Database.DSN(), database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}, log, model.AllModels()...)
	if err != nil {
		return nil, err
	}
	if err := database.ApplySchemaSQL(ctx, db, database.SchemaSQL, "schema", log); err != nil {
		return nil, err
	}
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, fmt.Errorf("注册审计回调失败: %w", err)
	}
	return db, nil
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Commerce:   repository.NewCommerceUnitOfWork(db),
		User:       repository.NewUserRepository(db),
		Media:      repository.NewMediaRepository(db),
		Blogs:      repository.NewBlogRepository(db),
		Categories: repository.NewBlogCategoryRepository(db),
		Museum:     repository.NewMuseumRepository(db),
		Site:       repository.NewSiteRepository(db),
	}
}

// initStorage 初始化媒体存储
func initStorage(ctx context.Context, cfg *config.Config) (service.StorageProvider, error) {
	provider, err := service.NewStorageProvider(ctx, &service.StorageConfig{
		Provider:      cfg.Media.Backend,
		LocalRoot:     cfg.Media.LocalRoot,
		BaseURL:       cfg.Media.BaseURL,
		Bucket:        cfg.Media.S3Bucket,
		Region:        cfg.Media.S3Region,
		Endpoint:      cfg.Media.S3Endpoint,
		AccessKey:     cfg.Media.S3AccessKey,
		SecretKey:     cfg.Media.S3SecretKey,
		SignedExpires: cfg.Media.SignedURLExpires,
	})
	if err != nil {
		return nil, fmt.Errorf("存储初始化失败: %w", err)
	}
	return provider, nil
}

// initServices 初始化业务服务
func initServices(cfg *config.Config, deps *Dependencies, provider service.StorageProvider, log *zap.Logger) *Services {
	wcCfg := woocommerce.Config{
		StoreURL:       cfg.WooCommerce.StoreURL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
		APIVersion:     cfg.WooCommerce.APIVersion,
		MaxRetries:     cfg.WooCommerce.MaxRetries,
		RetryBackoff:   cfg.WooCommerce.RetryBackoff,
		Timeout:        cfg.WooCommerce.RequestTimeout,
	}
	if !wcCfg.Configured() {
		log.Warn("WooCommerce 未配置，同步接口将返回 503")
	}
	verifier := woocommerce.NewVerifier(cfg.WooCommerce.WebhookSecret)
	if !verifier.Configured() {
		log.Warn("WC_WEBHOOK_SECRET 未配置，webhook 将全部拒绝")
	}
	client := woocommerce.NewClient(wcCfg, woocommerce.WithLogger(log))

	return &Services{
		User:     service.NewUserService(deps.Repos.User, deps.Tokens, log),
		Painting: service.NewPaintingService(deps.Repos.Commerce, log),
		Sync:     service.NewCommerceSyncService(deps.Repos.Commerce, client, verifier, log),
		Media:    service.NewMediaService(provider, deps.Repos.Media, cfg.Media.MaxUploadBytes, log),
		Blog:     service.NewBlogService(deps.Repos.Blogs, deps.Repos.Categories, log),
		Museum:   service.NewMuseumService(deps.Repos.Museum, deps.Repos.Commerce.Paintings, log),
		Site:     service.NewSiteService(deps.Repos.Site, deps.Repos.Categories, log),
	}
}

// initControllers 初始化所有控制器
func initControllers(cfg *config.Config, deps *Dependencies, log *zap.Logger) *router.Controllers {
	svc := deps.Services
	return &router.Controllers{
		Health:      controller.NewHealthController(deps.DB),
		User:        controller.NewUserController(svc.User),
		Painting:    controller.NewPaintingController(svc.Painting, log),
		Commerce:    controller.NewCommerceController(svc.Sync, log),
		WooCommerce: controller.NewWooCommerceController(svc.Sync, cfg.HTTP.MaxWebhookBytes, log),
		Media:       controller.NewMediaController(svc.Media, log),
		Blog:        controller.NewBlogController(svc.Blog, log),
		Museum:      controller.NewMuseumController(svc.Museum, log),
		Site:        controller.NewSiteController(svc.Site, log),
	}
}
