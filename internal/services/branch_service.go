package services

import (
	"context"

	"go.uber.org/zap"

	"field-agent/internal/alerts"
	"field-agent/internal/models"
	"field-agent/internal/remote"
	"field-agent/internal/repositories"
)

// BranchSource is the remote side of the branch list
type BranchSource interface {
	FetchDepartments(ctx context.Context) ([]remote.Record, error)
}

// AlertPublisher raises user-facing alerts and routes the chosen action back
type AlertPublisher interface {
	Publish(alertType, severity, message string, actions ...string) alerts.Alert
	OnAction(alertType string, handler alerts.ActionHandler)
	Dismiss(alertType string) int
}

type BranchService struct {
	Repo    *repositories.BranchRepository
	Session *SessionService
	Fetcher *Fetcher[models.Branch]

	alerts AlertPublisher
	logger *zap.Logger
}

// NewBranchService wires the branch fetcher. Branches have no seed list, so
// exhaustion raises an alert on publisher (when set) offering retry or cancel.
func NewBranchService(client BranchSource, repo *repositories.BranchRepository, session *SessionService, policy RetryPolicy, publisher AlertPublisher, logger *zap.Logger) *BranchService {
	s := &BranchService{
		Repo:    repo,
		Session: session,
		alerts:  publisher,
		logger:  logger,
	}

	f := NewFetcher[models.Branch]("branches", policy, logger)
	f.Remote = func(ctx context.Context) ([]models.Branch, error) {
		records, err := client.FetchDepartments(ctx)
		if err != nil {
			return nil, err
		}
		return NormalizeBranches(records), nil
	}
	f.LoadCache = repo.ListCached
	f.SaveCache = repo.SaveCached
	s.Fetcher = f

	if publisher != nil {
		f.OnExhausted = func(ctx context.Context, lastErr error) {
			publisher.Publish(alerts.TypeBranchFetchFailed, "warning",
				"Unable to load branches. "+UserMessage(lastErr),
				alerts.ActionRetry, alerts.ActionCancel)
		}
		publisher.OnAction(alerts.TypeBranchFetchFailed, s.handleAlertAction)
	}
	return s
}

// ListBranches fetches branches with retries, falling back to the cache
func (s *BranchService) ListBranches(ctx context.Context) ([]models.Branch, Source, error) {
	if _, err := s.Session.UserID(); err != nil {
		return nil, SourceNone, err
	}
	res, err := s.Fetcher.Fetch(ctx)
	if err == nil && res.Source == SourceRemote {
		s.dismissAlerts()
	}
	return res.Items, res.Source, err
}

// Retry is the manual retry: the failure counter starts again from zero
func (s *BranchService) Retry(ctx context.Context) ([]models.Branch, Source, error) {
	if _, err := s.Session.UserID(); err != nil {
		return nil, SourceNone, err
	}
	// this attempt replaces any open failure alert; a new one is raised if it fails too
	s.dismissAlerts()
	res, err := s.Fetcher.ManualRetry(ctx)
	return res.Items, res.Source, err
}

func (s *BranchService) dismissAlerts() {
	if s.alerts != nil {
		s.alerts.Dismiss(alerts.TypeBranchFetchFailed)
	}
}

// Known returns the cached branches without any network call
func (s *BranchService) Known(ctx context.Context) []models.Branch {
	branches, err := s.Repo.ListCached(ctx)
	if err != nil {
		s.logger.Warn("failed to read cached branches", zap.Error(err))
	}
	return branches
}

func (s *BranchService) handleAlertAction(ctx context.Context, alert alerts.Alert, action string) error {
	if action != alerts.ActionRetry {
		s.logger.Info("branch retry declined", zap.Int("alert_id", alert.ID))
		return nil
	}
	_, _, err := s.Retry(ctx)
	return err
}
