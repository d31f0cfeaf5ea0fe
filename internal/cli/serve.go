package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/repair-commons/repaircafe/internal/config"
	"github.com/repair-commons/repaircafe/internal/database"
	"github.com/repair-commons/repaircafe/internal/handler"
	"github.com/repair-commons/repaircafe/internal/notify"
	"github.com/repair-commons/repaircafe/internal/repository"
	"github.com/repair-commons/repaircafe/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg := config.Load()

	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if err := database.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	slog.Info("connected to postgres", "host", cfg.DBHost, "db", cfg.DBName)

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	authRepo := repository.NewAuthRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	volRepo := repository.NewVolunteerRepository(pool)
	prefRepo := repository.NewPreferenceRepository(pool)

	// Outbound email.
	mailer := notify.NewMailer(cfg)
	dispatcher := notify.NewDispatcher(mailer, userRepo, prefRepo, cfg.AppURL, cfg.OrgName)

	// Services.
	authSvc := service.NewAuthService(userRepo, authRepo, dispatcher, cfg)
	eventSvc := service.NewEventService(eventRepo)
	regSvc := service.NewRegistrationService(authSvc, eventRepo, regRepo, itemRepo, dispatcher)
	itemSvc := service.NewItemService(itemRepo, volRepo, eventRepo, dispatcher)
	checkinSvc := service.NewCheckinService(regRepo)
	reportSvc := service.NewReportService(eventRepo, itemRepo, regRepo, eventRepo)
	volSvc := service.NewVolunteerService(volRepo, authSvc, userRepo)
	prefSvc := service.NewPreferenceService(prefRepo)

	router := handler.NewRouter(authSvc, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Events:        handler.NewEventHandler(eventSvc),
		Registrations: handler.NewRegistrationHandler(regSvc),
		Checkin:       handler.NewCheckinHandler(checkinSvc),
		Items:         handler.NewItemHandler(itemSvc),
		Volunteers:    handler.NewVolunteerHandler(volSvc, prefSvc),
		Reports:       handler.NewReportHandler(reportSvc),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
