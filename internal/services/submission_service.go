package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"field-agent/internal/metrics"
	"field-agent/internal/models"
	"field-agent/internal/remote"
	"field-agent/internal/repositories"
	"field-agent/internal/timeutil"
)

// CollectionSubmitter posts a new collection to the backend
type CollectionSubmitter interface {
	AddCollection(ctx context.Context, form remote.CollectionForm) (interface{}, error)
}

type SubmissionService struct {
	Client         CollectionSubmitter
	Repo           *repositories.CollectionRepository
	PaymentMethods *repositories.PaymentMethodRepository
	Customers      *CustomerService
	Branches       *BranchService
	Session        *SessionService
	// Archive is optional
	Archive *ScreenshotArchive
	Policy  RetryPolicy

	logger *zap.Logger
	now    func() time.Time
}

func NewSubmissionService(
	client CollectionSubmitter,
	repo *repositories.CollectionRepository,
	paymentMethods *repositories.PaymentMethodRepository,
	customers *CustomerService,
	branches *BranchService,
	session *SessionService,
	policy RetryPolicy,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		Client:         client,
		Repo:           repo,
		PaymentMethods: paymentMethods,
		Customers:      customers,
		Branches:       branches,
		Session:        session,
		Policy:         policy.withDefaults(),
		logger:         logger,
		now:            timeutil.Now,
	}
}

// ValidateCreate checks the form before anything is sent. It returns the
// parsed amount and canonical payment method.
func ValidateCreate(req *models.CreateCollectionRequest) (decimal.Decimal, string, error) {
	if strings.TrimSpace(req.CustomerID) == "" && strings.TrimSpace(req.ManualCustomerName) == "" {
		return decimal.Zero, "", &ValidationError{Field: "customer", Message: "Please select a customer or enter a customer name"}
	}
	if strings.TrimSpace(req.BranchID) == "" {
		return decimal.Zero, "", &ValidationError{Field: "branch", Message: "Please select a branch"}
	}
	amount, err := validateAmount(req.Amount)
	if err != nil {
		return decimal.Zero, "", err
	}
	method, err := validatePaymentMethod(req.PaymentMethod)
	if err != nil {
		return decimal.Zero, "", err
	}
	if err := validateScreenshot(method, req.Screenshot); err != nil {
		return decimal.Zero, "", err
	}
	return amount, method, nil
}

func validateAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "Please enter the amount"}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "Please enter a valid amount"}
	}
	return amount, nil
}

// validatePaymentMethod defaults an empty method to UPI
func validatePaymentMethod(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return models.PaymentUPI, nil
	}
	method, ok := models.NormalizePaymentMethod(raw)
	if !ok {
		return "", &ValidationError{Field: "payment_method", Message: "Please choose UPI, cash, cheque or NEFT"}
	}
	return method, nil
}

// validateScreenshot requires a readable file for every method except cash
func validateScreenshot(method, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if method == models.PaymentCash {
			return nil
		}
		return &ValidationError{Field: "screenshot", Message: "Please attach the payment screenshot"}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &ValidationError{Field: "screenshot", Message: "The payment screenshot could not be read"}
	}
	return nil
}

// CreateCollection validates, posts and records a new collection
func (s *SubmissionService) CreateCollection(ctx context.Context, req *models.CreateCollectionRequest) (*models.CollectionEntry, error) {
	userID, err := s.Session.UserID()
	if err != nil {
		return nil, err
	}
	amount, method, err := ValidateCreate(req)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	log := s.logger.With(zap.String("user_id", userID))

	// a manual customer is saved only once the backend accepts the collection
	customer, err := s.resolveCustomer(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	branchName := s.resolveBranch(ctx, req.BranchID, req.BranchName)

	notes := strings.TrimSpace(req.Notes)
	screenshot := strings.TrimSpace(req.Screenshot)
	form := remote.CollectionForm{
		UserID:         userID,
		CreatedBy:      userID,
		ClientName:     customer.Name,
		ClientPlace:    customer.Place,
		Department:     branchName,
		Amount:         amount.StringFixed(2),
		PaymentMethod:  method,
		Notes:          notes,
		PaidFor:        notes,
		CustomerID:     customer.ID,
		BranchID:       req.BranchID,
		ScreenshotPath: screenshot,
	}

	doc, err := s.submit(ctx, form)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		log.Error("collection submission failed", zap.Error(err))
		return nil, fmt.Errorf("submit collection: %w", err)
	}

	now := s.now()
	id := ExtractCollectionID(doc)
	if id == "" {
		id = fmt.Sprintf("%s%d", models.TempCollectionIDPrefix, now.UnixMilli())
		log.Warn("server response carried no collection id, using placeholder", zap.String("id", id))
	}

	entry := models.CollectionEntry{
		ID:            id,
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPlace: customer.Place,
		BranchID:      req.BranchID,
		BranchName:    branchName,
		Amount:        form.Amount,
		Notes:         NormalizeNotes(notes),
		CreatedAt:     timeutil.ISO(now),
		PaymentMethod: method,
	}
	if screenshot != "" {
		entry.Screenshot = &screenshot
	}

	// the backend already has the record; local write failures are only logged
	if err := s.PaymentMethods.Set(ctx, userID, id, method); err != nil {
		log.Warn("failed to record payment method", zap.String("id", id), zap.Error(err))
	}
	if err := s.Repo.AppendSubmitted(ctx, userID, entry); err != nil {
		log.Warn("failed to cache submitted collection", zap.String("id", id), zap.Error(err))
	}
	if customer.IsManual {
		if err := s.Customers.Repo.AddManual(ctx, userID, customer); err != nil {
			log.Warn("failed to save manual customer", zap.String("customer_id", customer.ID), zap.Error(err))
		}
	}

	if s.Archive != nil && screenshot != "" {
		if key, err := s.Archive.Upload(ctx, userID, id, screenshot); err != nil {
			log.Warn("screenshot archive failed", zap.String("id", id), zap.Error(err))
		} else {
			log.Debug("screenshot archived", zap.String("key", key))
		}
	}

	metrics.SubmissionsTotal.WithLabelValues("success").Inc()
	log.Info("collection submitted", zap.String("id", id), zap.String("amount", entry.Amount), zap.String("method", method))
	return &entry, nil
}

// submit posts the form, retrying timeouts, network errors and 5xx answers
func (s *SubmissionService) submit(ctx context.Context, form remote.CollectionForm) (interface{}, error) {
	policy := s.Policy.withDefaults()
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		doc, err := s.Client.AddCollection(ctx, form)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !remote.IsRetryable(err) || attempt == policy.MaxAttempts {
			break
		}
		s.logger.Warn("collection submission attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if err := sleepCtx(ctx, policy.Delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *SubmissionService) resolveCustomer(ctx context.Context, userID string, req *models.CreateCollectionRequest) (models.Customer, error) {
	if id := strings.TrimSpace(req.CustomerID); id != "" {
		c := models.Customer{ID: id, Name: strings.TrimSpace(req.CustomerName), Place: strings.TrimSpace(req.CustomerPlace)}
		if c.Name == "" || c.Place == "" {
			for _, known := range s.Customers.Known(ctx, userID) {
				if known.ID != id {
					continue
				}
				if c.Name == "" {
					c.Name = known.Name
				}
				if c.Place == "" {
					c.Place = known.Place
				}
				break
			}
		}
		return c, nil
	}

	return s.Customers.NewManualCustomer(&models.CreateManualCustomerRequest{
		Name:  req.ManualCustomerName,
		Place: req.ManualCustomerPlace,
	})
}

func (s *SubmissionService) resolveBranch(ctx context.Context, id, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	for _, b := range s.Branches.Known(ctx) {
		if b.ID == id {
			return b.Name
		}
	}
	return models.UnknownBranchName
}

// ExtractCollectionID finds the server id in the shapes the backend has used:
// {id}, {collection_id}, {data: {id}}, {collection: {id}}, {data: [{id}]}
func ExtractCollectionID(doc interface{}) string {
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return ""
	}
	rec := remote.Record(obj)
	if id := rec.First("id", "collection_id"); id != "" {
		return id
	}
	for _, key := range []string{"data", "collection"} {
		if nested, ok := rec.Nested(key); ok {
			if id := nested.First("id", "collection_id"); id != "" {
				return id
			}
		}
	}
	if arr, ok := obj["data"].([]interface{}); ok && len(arr) > 0 {
		if first, ok := arr[0].(map[string]interface{}); ok {
			return remote.Record(first).First("id", "collection_id")
		}
	}
	return ""
}

// UpdateCollection rewrites an entry on the device. The backend has no edit
// endpoint in use, so the change is not pushed and a later remote fetch
// carrying the same id will replace it.
func (s *SubmissionService) UpdateCollection(ctx context.Context, id string, req *models.UpdateCollectionRequest) (*models.CollectionEntry, error) {
	userID, err := s.Session.UserID()
	if err != nil {
		return nil, err
	}

	existing, err := s.Repo.Find(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("find collection: %w", err)
	}
	if existing == nil {
		return nil, ErrCollectionNotFound
	}
	entry := *existing

	if v := strings.TrimSpace(req.CustomerID); v != "" {
		entry.CustomerID = v
	}
	if v := strings.TrimSpace(req.CustomerName); v != "" {
		entry.CustomerName = v
	}
	if v := strings.TrimSpace(req.CustomerPlace); v != "" {
		entry.CustomerPlace = v
	}
	if v := strings.TrimSpace(req.BranchID); v != "" {
		entry.BranchID = v
		entry.BranchName = s.resolveBranch(ctx, v, req.BranchName)
	} else if v := strings.TrimSpace(req.BranchName); v != "" {
		entry.BranchName = v
	}
	if strings.TrimSpace(req.Amount) != "" {
		amount, err := validateAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		entry.Amount = amount.StringFixed(2)
	}
	if req.Notes != "" {
		entry.Notes = NormalizeNotes(strings.TrimSpace(req.Notes))
	}
	if strings.TrimSpace(req.PaymentMethod) != "" {
		method, err := validatePaymentMethod(req.PaymentMethod)
		if err != nil {
			return nil, err
		}
		entry.PaymentMethod = method
	}
	if v := strings.TrimSpace(req.Screenshot); v != "" {
		entry.Screenshot = &v
	}
	if entry.PaymentMethod != models.PaymentCash && entry.Screenshot == nil {
		return nil, &ValidationError{Field: "screenshot", Message: "Please attach the payment screenshot"}
	}

	log := s.logger.With(zap.String("user_id", userID), zap.String("id", id))
	if _, err := s.Repo.Replace(ctx, userID, entry); err != nil {
		return nil, fmt.Errorf("save collection: %w", err)
	}
	if err := s.PaymentMethods.Set(ctx, userID, id, entry.PaymentMethod); err != nil {
		log.Warn("failed to record payment method", zap.Error(err))
	}
	log.Warn("collection edited on device only; the change is not sent to the server")
	return &entry, nil
}
