package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"field-agent/internal/alerts"
	"field-agent/internal/models"
	"field-agent/internal/remote"
)

func TestBranches_ExhaustionRaisesAlertAndRetryResets(t *testing.T) {
	ctx := context.Background()
	hub := alerts.NewHub(zap.NewNop())
	env := newTestEnv(t, hub)

	var calls int32
	var healthy atomic.Bool
	env.backend.departments = func() ([]remote.Record, error) {
		atomic.AddInt32(&calls, 1)
		if healthy.Load() {
			return []remote.Record{{"id": "1", "department_name": "Coimbatore", "dept_code": "CBE"}}, nil
		}
		return nil, httpError(500)
	}

	branches, source, err := env.branches.ListBranches(ctx)
	require.ErrorIs(t, err, ErrNotFoundLocally)
	assert.Empty(t, branches)
	assert.Equal(t, SourceNone, source)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	active := hub.Active()
	require.Len(t, active, 1)
	assert.Equal(t, alerts.TypeBranchFetchFailed, active[0].Type)
	assert.Equal(t, []string{alerts.ActionRetry, alerts.ActionCancel}, active[0].Actions)
	assert.Equal(t, 3, env.branches.Fetcher.Status().Failures)

	// user picks Retry once the backend is back
	healthy.Store(true)
	require.NoError(t, hub.Resolve(ctx, active[0].ID, alerts.ActionRetry))

	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))
	status := env.branches.Fetcher.Status()
	assert.Equal(t, StateSucceeded, status.State)
	assert.Equal(t, 0, status.Failures)

	cached, err := env.branchRepo.ListCached(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Branch{{ID: "1", Name: "Coimbatore", Code: "CBE"}}, cached)
}

func TestBranches_ManualRetryReplacesOpenAlert(t *testing.T) {
	ctx := context.Background()
	hub := alerts.NewHub(zap.NewNop())
	env := newTestEnv(t, hub)

	var healthy atomic.Bool
	env.backend.departments = func() ([]remote.Record, error) {
		if healthy.Load() {
			return []remote.Record{{"id": "1", "department_name": "Coimbatore"}}, nil
		}
		return nil, httpError(503)
	}

	_, _, err := env.branches.ListBranches(ctx)
	require.Error(t, err)
	first := hub.Active()
	require.Len(t, first, 1)

	// a failed manual retry leaves exactly one open alert, the new one
	_, _, err = env.branches.Retry(ctx)
	require.Error(t, err)
	second := hub.Active()
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)

	healthy.Store(true)
	branches, source, err := env.branches.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, source)
	assert.Len(t, branches, 1)
	assert.Empty(t, hub.Active())
}

func TestBranches_SuccessfulFetchClearsAlert(t *testing.T) {
	ctx := context.Background()
	hub := alerts.NewHub(zap.NewNop())
	env := newTestEnv(t, hub)

	var healthy atomic.Bool
	env.backend.departments = func() ([]remote.Record, error) {
		if healthy.Load() {
			return []remote.Record{{"id": "2", "department_name": "Madurai"}}, nil
		}
		return nil, httpError(500)
	}

	_, _, err := env.branches.ListBranches(ctx)
	require.Error(t, err)
	require.Len(t, hub.Active(), 1)

	healthy.Store(true)
	_, source, err := env.branches.ListBranches(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, source)
	assert.Empty(t, hub.Active())
}

func TestBranches_CancelDoesNotFetch(t *testing.T) {
	ctx := context.Background()
	hub := alerts.NewHub(zap.NewNop())
	env := newTestEnv(t, hub)
	env.backend.departments = func() ([]remote.Record, error) { return nil, httpError(500) }

	_, _, err := env.branches.ListBranches(ctx)
	require.Error(t, err)
	require.Equal(t, 3, env.backend.Calls("departments"))

	require.NoError(t, hub.Resolve(ctx, hub.Active()[0].ID, alerts.ActionCancel))
	assert.Equal(t, 3, env.backend.Calls("departments"))
}

func TestBranches_CacheFallback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	require.NoError(t, env.branchRepo.SaveCached(ctx, testBranches))
	env.backend.departments = func() ([]remote.Record, error) {
		return nil, &remote.Error{Kind: remote.KindNetwork, Op: "departments"}
	}

	branches, source, err := env.branches.ListBranches(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, testBranches, branches)
}

func TestCustomers_FallbackToSeedAndManualMerge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.backend.clients = func() ([]remote.Record, error) { return nil, httpError(503) }

	added, err := env.customers.AddManualCustomer(ctx, &models.CreateManualCustomerRequest{Name: " Walk-in ", Place: "Karur"})
	require.NoError(t, err)
	assert.Equal(t, "manual_1714557600000", added.ID)
	assert.Equal(t, "Walk-in", added.Name)

	list, err := env.customers.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, list.Source)

	seed := SeedCustomers()
	require.Len(t, list.Customers, len(seed)+1)
	assert.Equal(t, seed[0], list.Customers[0])
	last := list.Customers[len(list.Customers)-1]
	assert.True(t, last.IsManual)
	assert.Equal(t, "Walk-in", last.Name)
}

func TestCustomers_RemoteNormalized(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.backend.clients = func() ([]remote.Record, error) {
		return []remote.Record{
			{"code": "C1", "name": "Ravi Traders", "address3": "Salem"},
			{"id": "C2", "name": "Lakshmi Stores", "location": "Erode"},
			{"code": "C1", "name": "Duplicate"},
			{"name": "No id"},
		}, nil
	}

	list, err := env.customers.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, list.Source)
	assert.Equal(t, []models.Customer{
		{ID: "C1", Name: "Ravi Traders", Place: "Salem"},
		{ID: "C2", Name: "Lakshmi Stores", Place: "Erode"},
	}, list.Customers)

	cached, err := env.customerRepo.ListCached(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestAddManualCustomer_RequiresName(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.customers.AddManualCustomer(context.Background(), &models.CreateManualCustomerRequest{Name: "  "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestRefreshAll(t *testing.T) {
	env := newTestEnv(t, nil)
	env.backend.clients = func() ([]remote.Record, error) {
		return []remote.Record{{"code": "C1", "name": "Ravi"}}, nil
	}
	env.backend.departments = func() ([]remote.Record, error) {
		return []remote.Record{{"id": "1", "name": "Coimbatore"}, {"id": "2", "dept_name": "Madurai"}}, nil
	}

	refs := NewReferenceService(env.customers, env.branches)
	res, err := refs.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Customers)
	assert.Equal(t, SourceRemote, res.CustomerSource)
	assert.Equal(t, 2, res.Branches)
	assert.Equal(t, SourceRemote, res.BranchSource)
}

func TestSeedCustomers(t *testing.T) {
	seed := SeedCustomers()
	require.NotEmpty(t, seed)
	for _, c := range seed {
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Name)
		assert.False(t, c.IsManual)
	}

	_, err := parseSeedCustomers([]byte("not: [valid"))
	assert.Error(t, err)
}
