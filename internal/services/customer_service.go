package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"field-agent/internal/models"
	"field-agent/internal/remote"
	"field-agent/internal/repositories"
	"field-agent/internal/timeutil"
)

const manualCustomerIDPrefix = "manual_"

// CustomerSource is the remote side of the customer list
type CustomerSource interface {
	FetchClients(ctx context.Context) ([]remote.Record, error)
}

type CustomerService struct {
	Repo    *repositories.CustomerRepository
	Session *SessionService
	Fetcher *Fetcher[models.Customer]

	logger *zap.Logger
	now    func() time.Time
}

func NewCustomerService(client CustomerSource, repo *repositories.CustomerRepository, session *SessionService, policy RetryPolicy, logger *zap.Logger) *CustomerService {
	f := NewFetcher[models.Customer]("customers", policy, logger)
	f.Remote = func(ctx context.Context) ([]models.Customer, error) {
		records, err := client.FetchClients(ctx)
		if err != nil {
			return nil, err
		}
		return NormalizeCustomers(records), nil
	}
	f.LoadCache = repo.ListCached
	f.SaveCache = repo.SaveCached
	f.Seed = SeedCustomers

	return &CustomerService{
		Repo:    repo,
		Session: session,
		Fetcher: f,
		logger:  logger,
		now:     timeutil.Now,
	}
}

// CustomerList is the remote (or fallback) list followed by the user's manual customers
type CustomerList struct {
	Customers []models.Customer `json:"customers"`
	Source    Source            `json:"source"`
}

// ListCustomers fetches customers with retries and fallbacks, then merges in
// the user's manual customers
func (s *CustomerService) ListCustomers(ctx context.Context) (*CustomerList, error) {
	userID, err := s.Session.UserID()
	if err != nil {
		return nil, err
	}

	res, err := s.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerList{Customers: s.withManual(ctx, userID, res.Items), Source: res.Source}, nil
}

// Known returns the customers currently on the device without any network call
func (s *CustomerService) Known(ctx context.Context, userID string) []models.Customer {
	cached, err := s.Repo.ListCached(ctx)
	if err != nil {
		s.logger.Warn("failed to read cached customers", zap.Error(err))
	}
	return s.withManual(ctx, userID, cached)
}

func (s *CustomerService) withManual(ctx context.Context, userID string, customers []models.Customer) []models.Customer {
	manual, err := s.Repo.ListManual(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to read manual customers", zap.String("user_id", userID), zap.Error(err))
	}
	return mergeCustomers(customers, manual)
}

// mergeCustomers appends manual customers whose id is not already listed
func mergeCustomers(listed, manual []models.Customer) []models.Customer {
	out := make([]models.Customer, 0, len(listed)+len(manual))
	seen := make(map[string]bool, len(listed)+len(manual))
	for _, c := range listed {
		seen[c.ID] = true
		out = append(out, c)
	}
	for _, c := range manual {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		c.IsManual = true
		out = append(out, c)
	}
	return out
}

// AddManualCustomer stores a customer that only exists on this device
func (s *CustomerService) AddManualCustomer(ctx context.Context, req *models.CreateManualCustomerRequest) (*models.Customer, error) {
	userID, err := s.Session.UserID()
	if err != nil {
		return nil, err
	}
	customer, err := s.NewManualCustomer(req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddManual(ctx, userID, customer); err != nil {
		return nil, fmt.Errorf("save manual customer: %w", err)
	}
	return &customer, nil
}

// NewManualCustomer validates and assigns an id without saving
func (s *CustomerService) NewManualCustomer(req *models.CreateManualCustomerRequest) (models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Customer{}, &ValidationError{Field: "name", Message: "Please enter the customer name"}
	}
	return models.Customer{
		ID:       fmt.Sprintf("%s%d", manualCustomerIDPrefix, s.now().UnixMilli()),
		Name:     name,
		Place:    strings.TrimSpace(req.Place),
		IsManual: true,
	}, nil
}
