package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/resqfood/resq/internal/auth"
	authdomain "github.com/resqfood/resq/internal/auth/domain"
	"github.com/resqfood/resq/internal/auth/session"
	"github.com/resqfood/resq/internal/config"
	"github.com/resqfood/resq/internal/observability"
	obsmiddleware "github.com/resqfood/resq/internal/observability/logger"
	obstracing "github.com/resqfood/resq/internal/observability/tracing"
	"github.com/resqfood/resq/internal/order"
	orderdomain "github.com/resqfood/resq/internal/order/domain"
	"github.com/resqfood/resq/internal/product"
	productdomain "github.com/resqfood/resq/internal/product/domain"
	"github.com/resqfood/resq/internal/profile"
	profiledomain "github.com/resqfood/resq/internal/profile/domain"
	"github.com/resqfood/resq/internal/ratelimit"
	"github.com/resqfood/resq/internal/storage"
	"github.com/resqfood/resq/internal/store"
	storedomain "github.com/resqfood/resq/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	session.Module,
	profile.Module,
	store.Module,
	product.Module,
	order.Module,
	storage.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	engine        *gin.Engine
	cfg           config.Config
	authsvc       authdomain.Service
	sessions      *session.Manager
	profilesvc    profiledomain.Service
	storesvc      storedomain.Service
	productsvc    productdomain.Service
	ordersvc      orderdomain.Service
	genID         *snowflake.Node
	blobs         *storage.LocalStore
	redeemLimiter *ratelimit.RedeemLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	Profilesvc    profiledomain.Service
	Storesvc      storedomain.Service
	Productsvc    productdomain.Service
	Ordersvc      orderdomain.Service
	GenID         *snowflake.Node
	Blobs         *storage.LocalStore
	RedeemLimiter *ratelimit.RedeemLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		authsvc:       p.Authsvc,
		sessions:      p.Sessions,
		profilesvc:    p.Profilesvc,
		storesvc:      p.Storesvc,
		productsvc:    p.Productsvc,
		ordersvc:      p.Ordersvc,
		genID:         p.GenID,
		blobs:         p.Blobs,
		redeemLimiter: p.RedeemLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerStaticRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Browse (public) --------
	api.GET("/stores", s.ListStores)
	api.GET("/stores/:id", s.GetStore)
	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProduct)

	// -------- Consumer --------
	api.POST("/orders", s.AuthRequired(), s.Reserve)
	api.GET("/orders", s.AuthRequired(), s.ListOrders)
	api.POST("/orders/:id/cancel", s.AuthRequired(), s.CancelOrder)

	// -------- Partner --------
	partner := api.Group("/partner", s.AuthRequired(), s.PartnerRequired())
	{
		partner.POST("/stores", s.RegisterStore)
		partner.GET("/stores", s.ListOwnStores)
		partner.GET("/stores/:id/orders", s.ListStoreOrders)
		partner.POST("/products", s.CreateProduct)
		partner.DELETE("/products/:id", s.DeleteProduct)
		partner.POST("/redeem", s.RedeemRateLimit(), s.Redeem)
	}
}

func (s *Server) registerStaticRoutes() {
	// Listing image blobs are served straight off the local blob root.
	s.engine.Static(s.cfg.StorageBaseURL, s.blobs.Root())
}
