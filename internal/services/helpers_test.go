package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"field-agent/internal/models"
	"field-agent/internal/remote"
	"field-agent/internal/repositories"
	"field-agent/internal/store"
)

// fakeBackend stands in for *remote.Client. Unset hooks return empty results.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	forms []remote.CollectionForm

	clients     func() ([]remote.Record, error)
	departments func() ([]remote.Record, error)
	collections func() ([]remote.Record, error)
	add         func(form remote.CollectionForm) (interface{}, error)
	login       func(userID, password string) (*remote.LoginResponse, error)
	create      func(kind string, payload map[string]interface{}) (remote.Record, error)
	list        func(kind, userID, password, status string) ([]remote.Record, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) FetchClients(ctx context.Context) ([]remote.Record, error) {
	f.record("clients")
	if f.clients == nil {
		return nil, nil
	}
	return f.clients()
}

func (f *fakeBackend) FetchDepartments(ctx context.Context) ([]remote.Record, error) {
	f.record("departments")
	if f.departments == nil {
		return nil, nil
	}
	return f.departments()
}

func (f *fakeBackend) FetchCollections(ctx context.Context) ([]remote.Record, error) {
	f.record("collections")
	if f.collections == nil {
		return nil, nil
	}
	return f.collections()
}

func (f *fakeBackend) BaseURL() string { return "https://crm.example.com/api" }

func (f *fakeBackend) AddCollection(ctx context.Context, form remote.CollectionForm) (interface{}, error) {
	f.record("collections_add")
	f.mu.Lock()
	f.forms = append(f.forms, form)
	f.mu.Unlock()
	if f.add == nil {
		return map[string]interface{}{}, nil
	}
	return f.add(form)
}

func (f *fakeBackend) Login(ctx context.Context, userID, password string) (*remote.LoginResponse, error) {
	f.record("login")
	if f.login == nil {
		return &remote.LoginResponse{Status: "success", Name: "Test User"}, nil
	}
	return f.login(userID, password)
}

func (f *fakeBackend) CreateRequest(ctx context.Context, kind string, payload map[string]interface{}) (remote.Record, error) {
	f.record(kind + "_create")
	if f.create == nil {
		return remote.Record{}, nil
	}
	return f.create(kind, payload)
}

func (f *fakeBackend) ListRequests(ctx context.Context, kind, userID, password, status string) ([]remote.Record, error) {
	f.record(kind + "_list")
	if f.list == nil {
		return nil, nil
	}
	return f.list(kind, userID, password, status)
}

func httpError(status int) error {
	return &remote.Error{Kind: remote.KindHTTP, Op: "test", Status: status, Body: "boom"}
}

// testEnv wires every service on a memory store with no retry delay
type testEnv struct {
	kv      *store.MemoryKV
	backend *fakeBackend

	session     *SessionService
	customers   *CustomerService
	branches    *BranchService
	collections *CollectionService
	submissions *SubmissionService
	attendance  *AttendanceService
	reports     *ReportService

	collectionRepo *repositories.CollectionRepository
	paymentRepo    *repositories.PaymentMethodRepository
	customerRepo   *repositories.CustomerRepository
	branchRepo     *repositories.BranchRepository
}

func newTestEnv(t *testing.T, publisher AlertPublisher) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}

	env := &testEnv{kv: store.NewMemoryKV(), backend: newFakeBackend()}
	env.collectionRepo = repositories.NewCollectionRepository(env.kv)
	env.paymentRepo = repositories.NewPaymentMethodRepository(env.kv)
	env.customerRepo = repositories.NewCustomerRepository(env.kv)
	env.branchRepo = repositories.NewBranchRepository(env.kv)

	env.session = NewSessionService(env.backend, logger)
	env.session.Start("emp1", "secret", "Test User")

	env.customers = NewCustomerService(env.backend, env.customerRepo, env.session, policy, logger)
	env.customers.now = fixedClock(time.UnixMilli(1714557600000))
	env.branches = NewBranchService(env.backend, env.branchRepo, env.session, policy, publisher, logger)
	env.collections = NewCollectionService(env.backend, env.collectionRepo, env.paymentRepo, env.customers, env.branches, env.session, logger)
	env.submissions = NewSubmissionService(env.backend, env.collectionRepo, env.paymentRepo, env.customers, env.branches, env.session, policy, logger)
	env.submissions.now = fixedClock(time.UnixMilli(1714557600000))
	env.attendance = NewAttendanceService(env.backend, env.session, logger)
	env.reports = NewReportService(env.collections, env.session)
	return env
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func strPtr(s string) *string { return &s }

var testCustomers = []models.Customer{
	{ID: "C1", Name: "Ravi Traders", Place: "Salem"},
	{ID: "C2", Name: "Lakshmi Stores", Place: "Erode"},
	{ID: "C3", Name: "Kumar", Place: ""},
}

var testBranches = []models.Branch{
	{ID: "1", Name: "Coimbatore", Code: "CBE"},
	{ID: "2", Name: "Madurai", Code: "MDU"},
}
