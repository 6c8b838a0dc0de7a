package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	"github.com/smallbiznis/greenpack/internal/auth/session"
	"github.com/smallbiznis/greenpack/internal/authorization"
	blogdomain "github.com/smallbiznis/greenpack/internal/blog/domain"
	"github.com/smallbiznis/greenpack/internal/config"
	dashboarddomain "github.com/smallbiznis/greenpack/internal/dashboard/domain"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/observability"
	obslogger "github.com/smallbiznis/greenpack/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/greenpack/internal/observability/metrics"
	obstracing "github.com/smallbiznis/greenpack/internal/observability/tracing"
	productdomain "github.com/smallbiznis/greenpack/internal/product/domain"
	"github.com/smallbiznis/greenpack/internal/providers/pdf"
	"github.com/smallbiznis/greenpack/internal/ratelimit"
	subscriberdomain "github.com/smallbiznis/greenpack/internal/subscriber/domain"
	sustainabilitydomain "github.com/smallbiznis/greenpack/internal/sustainability/domain"
	"github.com/smallbiznis/greenpack/internal/upload"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
	Registry    *prometheus.Registry    `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if p.HTTPMetrics != nil {
		r.Use(p.HTTPMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
	if p.Registry != nil {
		gatherers = append(gatherers, p.Registry)
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine            *gin.Engine
	db                *gorm.DB
	cfg               config.Config
	log               *zap.Logger
	authsvc           authdomain.Service
	sessions          *session.Manager
	authzSvc          authorization.Service
	auditSvc          auditdomain.Service
	inquirySvc        inquirydomain.Service
	subscriberSvc     subscriberdomain.Service
	productSvc        productdomain.Service
	sustainabilitySvc sustainabilitydomain.Service
	blogSvc           blogdomain.Service
	dashboardSvc      dashboarddomain.Service
	uploadSvc         upload.Service
	pdf               pdf.Provider
	factors           *config.ImpactFactorsHolder
	formLimiter       *ratelimit.FormLimiter
	obsMetrics        *obsmetrics.Metrics
	httpMetrics       *obsmetrics.HTTPMetrics
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	DB                *gorm.DB
	Cfg               config.Config
	Log               *zap.Logger
	Authsvc           authdomain.Service
	Sessions          *session.Manager
	AuthzSvc          authorization.Service
	AuditSvc          auditdomain.Service
	InquirySvc        inquirydomain.Service
	SubscriberSvc     subscriberdomain.Service
	ProductSvc        productdomain.Service
	SustainabilitySvc sustainabilitydomain.Service
	BlogSvc           blogdomain.Service
	DashboardSvc      dashboarddomain.Service
	UploadSvc         upload.Service
	PDF               pdf.Provider
	Factors           *config.ImpactFactorsHolder `optional:"true"`
	FormLimiter       *ratelimit.FormLimiter      `optional:"true"`
	ObsMetrics        *obsmetrics.Metrics         `optional:"true"`
	HTTPMetrics       *obsmetrics.HTTPMetrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		db:                p.DB,
		cfg:               p.Cfg,
		log:               p.Log.Named("http.server"),
		authsvc:           p.Authsvc,
		sessions:          p.Sessions,
		authzSvc:          p.AuthzSvc,
		auditSvc:          p.AuditSvc,
		inquirySvc:        p.InquirySvc,
		subscriberSvc:     p.SubscriberSvc,
		productSvc:        p.ProductSvc,
		sustainabilitySvc: p.SustainabilitySvc,
		blogSvc:           p.BlogSvc,
		dashboardSvc:      p.DashboardSvc,
		uploadSvc:         p.UploadSvc,
		pdf:               p.PDF,
		factors:           p.Factors,
		formLimiter:       p.FormLimiter,
		obsMetrics:        p.ObsMetrics,
		httpMetrics:       p.HTTPMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerCustomerRoutes()
	svc.registerAdminRoutes()
	svc.registerStaticRoutes()
	svc.registerTestRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.FormRateLimit("signup"), s.Signup)
	auth.POST("/login", s.FormRateLimit("login"), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.WebAuthRequired(), s.Me)
	auth.POST("/change-password", s.WebAuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Impact estimator --------
	api.GET("/impact/estimate", s.EstimateImpact)
	api.POST("/impact/estimate", s.EstimateImpact)
	api.GET("/impact/report.pdf", s.ImpactReportPDF)

	// -------- Lead capture --------
	api.GET("/form-options", s.GetFormOptions)
	api.POST("/inquiries", s.OptionalAuth(), s.FormRateLimit("inquiry"), s.SubmitInquiry)
	api.POST("/uploads", s.FormRateLimit("upload"), s.UploadAttachment)
	api.POST("/newsletter", s.OptionalAuth(), s.FormRateLimit("newsletter"), s.SubscribeNewsletter)
	api.POST("/community", s.OptionalAuth(), s.FormRateLimit("community"), s.JoinCommunity)
	api.POST("/newsletter/unsubscribe", s.FormRateLimit("unsubscribe"), s.Unsubscribe)

	// -------- Catalog --------
	api.GET("/products", s.ListProducts)
	api.GET("/products/:slug", s.GetProductBySlug)
	api.GET("/categories", s.ListCategories)

	// -------- Sustainability --------
	api.GET("/sustainability/metrics", s.ListSustainabilityMetrics)
	api.GET("/sustainability/summary", s.GetSustainabilitySummary)

	// -------- Blog --------
	api.GET("/blog", s.ListBlogPosts)
	api.GET("/blog/:slug", s.GetBlogPost)
}

func (s *Server) registerCustomerRoutes() {
	me := s.engine.Group("/api/me", s.WebAuthRequired())

	me.GET("/dashboard", s.GetMyDashboard)
	me.GET("/inquiries", s.ListMyInquiries)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.WebAuthRequired())

	admin.GET("/dashboard", s.authorize(authorization.ObjectDashboard, authorization.ActionDashboardView), s.GetAdminDashboard)

	// -------- Inquiries --------
	admin.GET("/inquiries", s.authorize(authorization.ObjectInquiry, authorization.ActionInquiryView), s.ListInquiries)
	admin.PATCH("/inquiries/:id/status", s.authorize(authorization.ObjectInquiry, authorization.ActionInquiryUpdate), s.UpdateInquiryStatus)
	admin.POST("/inquiries/:id/assign", s.authorize(authorization.ObjectInquiry, authorization.ActionInquiryAssign), s.AssignInquiry)

	admin.GET("/subscribers", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberView), s.ListSubscribers)

	// -------- Catalog --------
	admin.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.ListAllProducts)
	admin.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
	admin.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.UpdateProduct)
	admin.POST("/categories", s.authorize(authorization.ObjectCategory, authorization.ActionCategoryCreate), s.CreateCategory)

	admin.POST("/sustainability/metrics", s.authorize(authorization.ObjectSustainability, authorization.ActionSustainabilityRecord), s.RecordSustainabilityMetric)

	// -------- Blog --------
	admin.POST("/blog", s.authorize(authorization.ObjectBlog, authorization.ActionBlogCreate), s.CreateBlogPost)
	admin.POST("/blog/:id/publish", s.authorize(authorization.ObjectBlog, authorization.ActionBlogPublish), s.PublishBlogPost)

	admin.PATCH("/users/:id/role", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.SetUserRole)

	admin.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerStaticRoutes() {
	if s.cfg.Upload.Driver == upload.DriverLocal && s.cfg.Upload.LocalDir != "" {
		s.engine.Static(upload.LocalRoute, s.cfg.Upload.LocalDir)
	}
}

func (s *Server) registerTestRoutes() {
	if s.cfg.IsProduction() {
		return
	}
	s.engine.POST("/internal/test/cleanup", s.TestCleanup)
}

func (s *Server) registerFallback() {
	publicDir := s.cfg.PublicDir
	if publicDir == "" {
		publicDir = "./public"
	}

	s.engine.NoRoute(func(c *gin.Context) {
		if isAPIPath(c.Request.URL.Path) {
			AbortWithError(c, ErrNotFound)
			return
		}

		// static assets (vite)
		if fileExists(publicDir, c.Request.URL.Path) {
			c.File(filepath.Join(publicDir, filepath.Clean(c.Request.URL.Path)))
			return
		}

		// SPA fallback
		c.File(filepath.Join(publicDir, "index.html"))
	})
}

func isAPIPath(path string) bool {
	for _, prefix := range []string{"/api/", "/admin/", "/auth/", "/internal/"} {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func fileExists(publicDir, reqPath string) bool {
	clean := filepath.Clean(reqPath)

	// prevent path traversal
	if clean == "." || clean == "/" || clean == ".." {
		return false
	}

	fullPath := filepath.Join(publicDir, clean)

	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
