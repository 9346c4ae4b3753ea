// Package app wires the field agent: store, remote client, services, alert
// hub and the local HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"field-agent/internal/alerts"
	"field-agent/internal/config"
	"field-agent/internal/handlers"
	"field-agent/internal/health"
	apihttp "field-agent/internal/http"
	"field-agent/internal/middleware"
	"field-agent/internal/remote"
	"field-agent/internal/repositories"
	"field-agent/internal/services"
	"field-agent/internal/store"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	KV     store.KV
	Client *remote.Client
	Alerts *alerts.Hub

	Session     *services.SessionService
	Customers   *services.CustomerService
	Branches    *services.BranchService
	References  *services.ReferenceService
	Collections *services.CollectionService
	Submissions *services.SubmissionService
	Attendance  *services.AttendanceService
	Reports     *services.ReportService
}

// New opens the store and builds every service. Close releases the store.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	kv, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, KV: kv, Alerts: alerts.NewHub(logger)}
	policy := services.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, Delay: cfg.Retry.Delay}

	a.Session = services.NewSessionService(nil, logger)
	a.Client = remote.NewClient(cfg.API.BaseURL, cfg.API.Timeout, a.Session, logger)
	a.Session.Auth = a.Client

	customerRepo := repositories.NewCustomerRepository(kv)
	branchRepo := repositories.NewBranchRepository(kv)
	collectionRepo := repositories.NewCollectionRepository(kv)
	paymentRepo := repositories.NewPaymentMethodRepository(kv)

	a.Customers = services.NewCustomerService(a.Client, customerRepo, a.Session, policy, logger)
	a.Branches = services.NewBranchService(a.Client, branchRepo, a.Session, policy, a.Alerts, logger)
	a.References = services.NewReferenceService(a.Customers, a.Branches)
	a.Collections = services.NewCollectionService(a.Client, collectionRepo, paymentRepo, a.Customers, a.Branches, a.Session, logger)
	a.Submissions = services.NewSubmissionService(a.Client, collectionRepo, paymentRepo, a.Customers, a.Branches, a.Session, policy, logger)
	a.Attendance = services.NewAttendanceService(a.Client, a.Session, logger)
	a.Reports = services.NewReportService(a.Collections, a.Session)

	archive, err := services.NewScreenshotArchive(ctx, cfg.Archive)
	if err != nil {
		logger.Warn("screenshot archive disabled", zap.Error(err))
	} else if archive != nil {
		a.Submissions.Archive = archive
		logger.Info("screenshot archive enabled", zap.String("bucket", cfg.Archive.Bucket))
	}

	return a, nil
}

// Router returns the local API with CORS applied
func (a *App) Router() http.Handler {
	checker := health.NewHealthChecker(a.KV, a.Config.Store.Driver, a.Config.Store.DataDir())

	router := apihttp.NewRouter(
		handlers.NewSessionHandler(a.Session),
		handlers.NewCustomerHandler(a.Customers),
		handlers.NewBranchHandler(a.Branches, a.References),
		handlers.NewCollectionHandler(a.Collections, a.Submissions, a.Reports),
		handlers.NewAttendanceHandler(a.Attendance),
		handlers.NewAlertHandler(a.Alerts),
		handlers.NewHealthHandler(checker, a.Customers.Fetcher.Status, a.Branches.Fetcher.Status),
		a.Logger,
	)
	return middleware.NewCORS(a.Config)(router)
}

// Serve runs the alert hub and the HTTP server until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", a.Config.Server.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.Alerts.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("field agent listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	return a.KV.Close()
}
