package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memshaheb_backend/internal/controller"
	"memshaheb_backend/internal/middleware"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/pkg/logger"
)

// retryCooldown 批量重试接口的最小间隔
const retryCooldown = 30 * time.Second

// Controllers 控制器集合
type Controllers struct {
	Health      *controller.HealthController
	User        *controller.UserController
	Painting    *controller.PaintingController
	Commerce    *controller.CommerceController
	WooCommerce *controller.WooCommerceController
	Media       *controller.MediaController
	Blog        *controller.BlogController
	Museum      *controller.MuseumController
	Site        *controller.SiteController
}

// Options 路由依赖的中间件配置
type Options struct {
	Tokens          *middleware.TokenManager
	RateLimiter     *middleware.IPRateLimiter
	Cooldown        *middleware.SyncCooldown
	RequestIDHeader string
	CORSOrigins     []string
	MediaRoot       string // 本地存储目录，为空则不挂载 /media
	Logger          *zap.Logger
}

var (
	staff   = []string{string(model.UserRoleAdmin), string(model.UserRoleEditor)}
	readers = []string{string(model.UserRoleAdmin), string(model.UserRoleEditor), string(model.UserRoleReader)}
	writers = []string{string(model.UserRoleAdmin), string(model.UserRoleEditor), string(model.UserRoleAuthor)}
	admins  = []string{string(model.UserRoleAdmin)}
)

// SetupRouter 注册所有路由
func SetupRouter(ctl *Controllers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cooldown == nil {
		opts.Cooldown = middleware.NewSyncCooldown()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(opts.RequestIDHeader),
		logger.GinMiddleware(opts.Logger),
		logger.Recovery(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	// 1. 系统
	r.GET("/health", ctl.Health.Health)
	r.GET("/health/ready", ctl.Health.Ready)
	if opts.MediaRoot != "" {
		r.StaticFS("/media", gin.Dir(opts.MediaRoot, false))
	}

	// 2. 商城 webhook：签名鉴权，不走 JWT 与 IP 限流
	hooks := r.Group("/api/integrations/wc/webhooks")
	{
		hooks.POST("/product", ctl.WooCommerce.ProductWebhook)
		hooks.POST("/order", ctl.WooCommerce.OrderWebhook)
	}

	// 3. API 路由组
	api := r.Group("/api")
	if opts.RateLimiter != nil {
		api.Use(opts.RateLimiter.Middleware())
	}

	authed := middleware.JWTAuth(opts.Tokens)
	audit := middleware.AuditContext()

	// auth
	auth := api.Group("/auth")
	{
		auth.POST("/login", ctl.User.Login)
		auth.POST("/refresh", ctl.User.RefreshToken)
		auth.GET("/me", authed, ctl.User.Me)
	}

	// users
	users := api.Group("/users", authed)
	{
		users.GET("/me", ctl.User.Me)
		users.PUT("/me", ctl.User.UpdateMe)
		users.POST("/me/password", ctl.User.ChangePassword)
		users.GET("", middleware.RequireRole(staff...), ctl.User.List)
		users.POST("", middleware.RequireRole(admins...), ctl.User.Create)
		users.PUT("/:id", middleware.RequireRole(admins...), ctl.User.Update)
		users.DELETE("/:id", middleware.RequireRole(admins...), ctl.User.Delete)
	}

	// paintings
	paintings := api.Group("/paintings")
	{
		paintings.GET("", ctl.Painting.List)
		paintings.GET("/admin", authed, middleware.RequireRole(staff...), ctl.Painting.ListAdmin)
		paintings.GET("/:identifier", middleware.OptionalAuth(opts.Tokens), ctl.Painting.Get)

		write := paintings.Group("", authed, middleware.RequireRole(staff...), audit)
		write.POST("", ctl.Painting.Create)
		write.PATCH("/:identifier", ctl.Painting.Update)
		write.DELETE("/:identifier", ctl.Painting.Delete)
	}

	// blogs
	blogs := api.Group("/blogs")
	{
		blogs.GET("", ctl.Blog.List)
		blogs.GET("/admin", authed, middleware.RequireRole(writers...), ctl.Blog.ListAdmin)
		blogs.GET("/:identifier", middleware.OptionalAuth(opts.Tokens), ctl.Blog.Get)

		write := blogs.Group("", authed, middleware.RequireRole(writers...), audit)
		write.POST("", ctl.Blog.Create)
		write.PATCH("/:identifier", ctl.Blog.Update)
		write.DELETE("/:identifier", ctl.Blog.Delete)
	}
	categories := api.Group("/blog-categories")
	{
		categories.GET("", ctl.Blog.ListCategories)
		categories.GET("/:identifier", ctl.Blog.GetCategory)

		write := categories.Group("", authed, middleware.RequireRole(staff...), audit)
		write.POST("", ctl.Blog.CreateCategory)
		write.PATCH("/:identifier", ctl.Blog.UpdateCategory)
		write.DELETE("/:identifier", ctl.Blog.DeleteCategory)
	}

	// museum
	museum := api.Group("/museum")
	{
		museum.GET("/rooms", ctl.Museum.ListRooms)
		museum.GET("/artifacts", middleware.OptionalAuth(opts.Tokens), ctl.Museum.ListArtifacts)

		write := museum.Group("", authed, middleware.RequireRole(staff...), audit)
		write.POST("/rooms", ctl.Museum.CreateRoom)
		write.PATCH("/rooms/:id", ctl.Museum.UpdateRoom)
		write.DELETE("/rooms/:id", ctl.Museum.DeleteRoom)
		write.POST("/artifacts", ctl.Museum.CreateArtifact)
		write.PATCH("/artifacts/:id", ctl.Museum.UpdateArtifact)
		write.DELETE("/artifacts/:id", ctl.Museum.DeleteArtifact)
	}

	// 首页与站点设置
	sections := api.Group("/home/sections")
	{
		sections.GET("", ctl.Site.ListSections)

		write := sections.Group("", authed, middleware.RequireRole(staff...))
		write.GET("/admin", ctl.Site.ListSectionsAdmin)
		write.POST("", ctl.Site.CreateSection)
		write.PATCH("/:id", ctl.Site.UpdateSection)
		write.DELETE("/:id", ctl.Site.DeleteSection)
	}
	api.GET("/site/settings", ctl.Site.GetSettings)
	api.PATCH("/site/settings", authed, middleware.RequireRole(staff...), ctl.Site.UpdateSettings)

	// commerce
	api.GET("/commerce/products", authed, middleware.RequireRole(readers...), ctl.Commerce.ListProducts)

	// woocommerce 集成
	wc := api.Group("/integrations/wc")
	{
		wc.POST("/sync/:local_id", authed, middleware.RequireRole(staff...), ctl.WooCommerce.SyncEntity)
		wc.POST("/retry",
			authed,
			middleware.RequireRole(admins...),
			opts.Cooldown.Middleware("wc:retry", retryCooldown),
			ctl.WooCommerce.RetryFailed,
		)
	}

	// media
	media := api.Group("/media", authed, middleware.RequireRole(staff...), audit)
	{
		media.POST("", ctl.Media.Upload)
		media.GET("", ctl.Media.List)
		media.DELETE("/:id", ctl.Media.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "Not Found"})
	})
	return r
}
