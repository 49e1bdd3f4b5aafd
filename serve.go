package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "library-backend/docs"
	"library-backend/internal/catalog"
	"library-backend/internal/genres"
	"library-backend/internal/labels"
	"library-backend/internal/lending"
	"library-backend/internal/members"
	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*cfgPath)
		},
	}
}

func serve(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log.Printf("[INFO] mode:%s", cfg.Mode)

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB (%s)", cfg.DB.Driver)

	if err := db.Migrate(context.Background(), conn); err != nil {
		return err
	}

	r, monitor, err := newRouter(cfg, conn)
	if err != nil {
		return err
	}
	monitor.Start()
	defer monitor.Stop()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.Cert != "" && cfg.Server.Key != "" {
			// 証明書は config/tls/<mode>/ に置く
			certFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Server.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Server.Key)
			log.Printf("[INFO] listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[WARN] no TLS certificate configured, listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-quit:
	}
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newRouter はサービスを組み立ててルートを登録する。
func newRouter(cfg *config.Config, conn *sql.DB) (*gin.Engine, *lending.OverdueMonitor, error) {
	fees, err := lending.NewPerDayFee(cfg.Lending)
	if err != nil {
		return nil, nil, err
	}

	authSvc := auth.NewService(conn, cfg.Auth)
	genreSvc := genres.NewService(conn)
	catalogSvc := catalog.NewService(conn, genreSvc.Store())
	labelSvc := labels.NewService(catalogSvc.Store())
	memberSvc := members.NewService(conn)
	lendingSvc := lending.NewService(conn, catalogSvc.Store(), memberSvc.Store(), fees, lending.OptionsFrom(cfg.Lending))

	monitor, err := lending.NewOverdueMonitor(lendingSvc, cfg.Lending.OverdueScanCron)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.IsDev() {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	secured := api.Group("", auth.RequireAuth(authSvc.Secret()))
	admin := api.Group("", auth.RequireAuth(authSvc.Secret()), auth.RequireRole(auth.RoleAdmin))
	staff := auth.RequireRole(auth.RoleLibrarian, auth.RoleAdmin)

	auth.RegisterRoutes(api, admin, authSvc)
	genres.RegisterRoutes(secured, staff, genreSvc)
	catalog.RegisterRoutes(secured, catalogSvc)
	labels.RegisterRoutes(secured, staff, labelSvc)
	members.RegisterRoutes(secured, memberSvc)
	lending.RegisterRoutes(secured, staff, lendingSvc)

	return r, monitor, nil
}
