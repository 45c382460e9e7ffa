package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/cache"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/config"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/controllers"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/logger"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/mailer"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/media"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/server"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/storage"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
var imageMimeTypes = []string{"image/jpeg", "image/png", "image/webp"}

func main() {
	root := &cobra.Command{
		Use:          "mmv-admin",
		Short:        "Marketplace admin API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed-admin",
			Short: "Create the bootstrap admin from ADMIN_EMAIL and ADMIN_PASSWORD",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return seedAdmin(cmd.Context())
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
	rdb    *redis.Client
	bucket storage.Bucket
	svcs   server.Services
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Connect(ctx, cfg.MongoURI, cfg.DatabaseName, log)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable; login throttling and realtime visitors disabled", zap.Error(err))
			rdb = nil
		}
	}

	bucket, err := storage.Open(ctx, cfg.Storage, cfg.AppBaseURL)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	m := mailer.New(cfg.SMTP, log)

	tags := services.NewTagService(db, log)
	users := services.NewUserService(db, bucket, tags, log)
	projects := services.NewProjectService(db, users, tags, bucket, cfg.Upload.MaxProjectFiles, log)
	applications := services.NewApplicationService(db, projects, users, bucket, log)
	reviews := services.NewReviewService(db, projects, log)
	visitors := services.NewVisitorService(db, rdb, log)
	encoder := media.NewCompressor(bucket, cfg.Video.FFmpegPath, cfg.Video.FFmpegArgs, log)

	svcs := server.Services{
		Auth: services.NewAuthService(db, users, rdb, m, services.AuthConfig{
			JWTSecret:        cfg.JWTSecret,
			RefreshSecret:    cfg.JWTRefreshSecret,
			AccessTTL:        cfg.AccessTTL,
			RefreshTTL:       cfg.RefreshTTL,
			PasswordResetTTL: cfg.PasswordResetTTL,
			LoginMaxAttempts: cfg.LoginMaxAttempts,
			LoginWindow:      cfg.LoginWindow,
			AppBaseURL:       cfg.AppBaseURL,
		}, log),
		Users:        users,
		Invitations:  services.NewInvitationService(db, users, m, cfg.InvitationTTL, cfg.AppBaseURL, log),
		Categories:   services.NewCategoryService(db, bucket, log),
		Tags:         tags,
		Projects:     projects,
		Applications: applications,
		Submissions:  services.NewSubmissionService(db, projects, bucket, log),
		Reviews:      reviews,
		Bookmarks:    services.NewBookmarkService(db, users, projects),
		Macros:       services.NewMacroService(db, log),
		Visitors:     visitors,
		CMS:          services.NewCMSService(db, users, tags, bucket, log),
		Media:        services.NewMediaService(db, bucket, encoder, cfg.Video.MaxConcurrent, cfg.Video.JobTimeout, log),
		Dashboard:    services.NewDashboardService(users, projects, applications, reviews, visitors),
	}

	return &app{cfg: cfg, logger: log, db: db, rdb: rdb, bucket: bucket, svcs: svcs}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.db.Disconnect(ctx); err != nil {
		a.logger.Error("mongo disconnect", zap.Error(err))
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if c, ok := a.bucket.(io.Closer); ok {
		_ = c.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) seedAdmin(ctx context.Context) error {
	if a.cfg.AdminEmail == "" || a.cfg.AdminPassword == "" {
		a.logger.Info("ADMIN_EMAIL/ADMIN_PASSWORD not set; skipping admin seed")
		return nil
	}
	created, err := a.svcs.Users.SeedAdmin(ctx, a.cfg.AdminEmail, a.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		a.logger.Info("admin user seeded", zap.String("email", a.cfg.AdminEmail))
	}
	return nil
}

func seedAdmin(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return a.seedAdmin(ctx)
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	log := a.logger

	if err := a.seedAdmin(ctx); err != nil {
		return err
	}
	if n, err := a.svcs.Media.Resume(ctx); err != nil {
		log.Error("resume video jobs", zap.Error(err))
	} else if n > 0 {
		log.Info("resumed video jobs", zap.Int("count", n))
	}

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	controllers.SetQueryLimits(utils.QueryLimits{Default: a.cfg.DefaultQueryLimit, Max: a.cfg.MaxQueryLimit})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	up := a.cfg.Upload
	router := server.NewRouter(a.svcs, server.Options{
		JWTSecret:      a.cfg.JWTSecret,
		AllowedOrigins: a.cfg.AllowedOrigins,
		Cookie: controllers.SessionCookie{
			Options: utils.CookieOptions{Secure: a.cfg.CookieSecure, Domain: a.cfg.CookieDomain},
			TTL:     a.cfg.RefreshTTL,
		},
		Files:    utils.NewFileValidator(up.AllowedExtensions, up.AllowedMimeTypes, up.MaxUploadSizeMB, up.MaxVideoSizeMB),
		Images:   utils.NewFileValidator(imageExtensions, imageMimeTypes, up.MaxUploadSizeMB, up.MaxUploadSizeMB),
		Registry: reg,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := a.svcs.Media.Shutdown(shutdownCtx); err != nil {
		log.Error("video workers did not stop in time", zap.Error(err))
	}
	return nil
}
