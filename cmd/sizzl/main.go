package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/config"
	httptransport "github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/http"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/logging"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/mail"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/otpstore"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence/sqlite"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/queue"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/storage/s3"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/sweeper"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx, fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// app owns every long-lived component of the service.
type app struct {
	handler http.Handler
	sweeper *sweeper.Sweeper
	worker  *queue.Worker
	logger  *slog.Logger
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (a *app, err error) {
	a = &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	store, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return a, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	if err := store.Migrate(ctx, logger); err != nil {
		return a, err
	}

	now := time.Now
	idGenerator := uuid.NewString

	sender, err := newMailSender(cfg, logger)
	if err != nil {
		return a, err
	}
	taskHandler := queue.NewHandler(sender, cfg.Location, now, logger)

	var codes otpstore.Store
	var mailer *queue.Client
	if cfg.Redis.Enabled() {
		redisCfg := queue.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return a, fmt.Errorf("connect redis: %w", err)
		}
		codes = otpstore.NewRedisStore(rdb)

		client := queue.NewRedisClient(redisCfg)
		a.closers = append(a.closers, client.Close)
		mailer = queue.NewClient(client)
		a.worker = queue.NewWorker(redisCfg, cfg.QueueConcurrency, taskHandler, logger)
	} else {
		logger.Warn("redis not configured, login codes kept in memory and mail sent inline")
		codes = otpstore.NewMemoryStore(0, now)
		mailer = queue.NewInlineClient(taskHandler)
	}

	var objects application.ObjectStore
	if cfg.S3.Enabled() {
		bucket, err := s3.New(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return a, err
		}
		objects = bucket
	}

	signer, err := token.NewSigner(cfg.SessionSecret, now)
	if err != nil {
		return a, err
	}

	authService := application.NewAuthServiceWithLogger(store.Users, store.Sessions, codes, signer, mailer, application.AuthConfig{
		SchoolDomains: cfg.SchoolDomains,
		CodeTTL:       cfg.OTPTTL,
		MaxAttempts:   cfg.OTPMaxAttempts,
		SessionTTL:    cfg.SessionTTL,
	}, idGenerator, now, logger)
	profileService := application.NewProfileServiceWithLogger(store.Users, now, logger)
	eventService := application.NewEventServiceWithLogger(store.Events, store.Users, store.Invitations, store.Notifications, idGenerator, now, cfg.PublicBaseURL, logger)
	rsvpService := application.NewRSVPServiceWithLogger(eventService, store.RSVPs, store.Invitations, now, logger)
	invitationService := application.NewInvitationServiceWithLogger(eventService, store.Users, store.Invitations, store.RSVPs, store.Notifications, mailer, idGenerator, now, logger)
	notificationService := application.NewNotificationServiceWithLogger(store.Notifications, now, logger)
	mediaService := application.NewMediaService(objects, cfg.MaxImageBytes, idGenerator, logger)
	maintenance := application.NewMaintenanceService(store.Sessions, store.Events, store.Invitations, store.Notifications, mailer, cfg.ReminderLead, idGenerator, now, logger)

	secureCookies := strings.HasPrefix(cfg.PublicBaseURL, "https://")
	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, secureCookies, logger),
		Profiles:      httptransport.NewProfileHandler(profileService, logger),
		Events:        httptransport.NewEventHandler(eventService, cfg.Location, logger),
		RSVPs:         httptransport.NewRSVPHandler(rsvpService, logger),
		Invitations:   httptransport.NewInvitationHandler(invitationService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
		Media:         httptransport.NewMediaHandler(mediaService, logger),
		Schedule:      httptransport.NewScheduleHandler(cfg.Location, now, logger),
		Authenticate:  httptransport.RequireSession(authService, logger),
		Middleware:    []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	a.sweeper, err = sweeper.New(cfg.SweepSchedule, cfg.Location, time.Minute, logger,
		sweeper.Job{Name: "purge_sessions", Run: func(ctx context.Context) error {
			_, err := maintenance.PurgeExpiredSessions(ctx)
			return err
		}},
		sweeper.Job{Name: "rsvp_reminders", Run: func(ctx context.Context) error {
			_, err := maintenance.SendRSVPReminders(ctx)
			return err
		}},
	)
	if err != nil {
		return a, err
	}
	return a, nil
}

func newMailSender(cfg config.Config, logger *slog.Logger) (mail.Sender, error) {
	if !cfg.SMTP.Enabled() {
		logger.Warn("smtp not configured, mail will only be logged")
		return mail.NewLogSender(logger), nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

// Run serves HTTP on addr with the background worker and sweeper running
// until ctx is cancelled.
func (a *app) Run(ctx context.Context, addr string) error {
	if a.worker != nil {
		if err := a.worker.Start(); err != nil {
			return err
		}
		defer a.worker.Shutdown()
	}
	a.sweeper.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.sweeper.Stop(stopCtx); err != nil {
			a.logger.Error("failed to stop sweeper", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	a.logger.Info("sizzl API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
