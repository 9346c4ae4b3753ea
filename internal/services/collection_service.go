package services

import (
	"context"

	"go.uber.org/zap"

	"field-agent/internal/metrics"
	"field-agent/internal/models"
	"field-agent/internal/remote"
	"field-agent/internal/repositories"
)

// CollectionSource is the remote side of the collection list
type CollectionSource interface {
	FetchCollections(ctx context.Context) ([]remote.Record, error)
	BaseURL() string
}

type CollectionService struct {
	Client         CollectionSource
	Repo           *repositories.CollectionRepository
	PaymentMethods *repositories.PaymentMethodRepository
	Customers      *CustomerService
	Branches       *BranchService
	Session        *SessionService

	logger *zap.Logger
}

func NewCollectionService(
	client CollectionSource,
	repo *repositories.CollectionRepository,
	paymentMethods *repositories.PaymentMethodRepository,
	customers *CustomerService,
	branches *BranchService,
	session *SessionService,
	logger *zap.Logger,
) *CollectionService {
	return &CollectionService{
		Client:         client,
		Repo:           repo,
		PaymentMethods: paymentMethods,
		Customers:      customers,
		Branches:       branches,
		Session:        session,
		logger:         logger,
	}
}

type CollectionList struct {
	Collections []models.CollectionEntry `json:"collections"`
	Source      Source                   `json:"source"`
}

// ListCollections returns the reconciled list for the signed-in user, newest
// first. A remote failure falls back to the device cache; apart from a
// missing session it never returns an error.
func (s *CollectionService) ListCollections(ctx context.Context) (*CollectionList, error) {
	userID, err := s.Session.UserID()
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("user_id", userID))

	rec := s.reconciler(ctx, userID)

	cached, err := s.Repo.ListLocal(ctx, userID)
	if err != nil {
		log.Warn("failed to read cached collections", zap.Error(err))
		cached = nil
	}

	source := SourceRemote
	var entries []models.CollectionEntry

	records, err := s.Client.FetchCollections(ctx)
	if err != nil {
		log.Warn("collections fetch failed, using device cache", zap.Error(err))
		source = SourceCache
		entries = rec.Normalize(cached)
	} else {
		entries = rec.Normalize(rec.Merge(userID, records, cached))
		if err := s.Repo.SaveCached(ctx, userID, entries); err != nil {
			log.Warn("failed to cache reconciled collections", zap.Error(err))
		}
	}

	SortNewestFirst(entries)
	metrics.ReconciledRecords.Set(float64(len(entries)))

	log.Debug("collections reconciled", zap.Int("count", len(entries)), zap.String("source", string(source)))
	return &CollectionList{Collections: entries, Source: source}, nil
}

// reconciler snapshots the reference lists and side-table currently on the device
func (s *CollectionService) reconciler(ctx context.Context, userID string) *Reconciler {
	methods, err := s.PaymentMethods.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to read payment method side-table", zap.Error(err))
		methods = map[string]string{}
	}
	return &Reconciler{
		Customers:      s.Customers.Known(ctx, userID),
		Branches:       s.Branches.Known(ctx),
		PaymentMethods: methods,
		APIBase:        s.Client.BaseURL(),
	}
}
