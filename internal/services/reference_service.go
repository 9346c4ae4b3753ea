package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ReferenceService refreshes both reference lists together (pull-to-refresh)
type ReferenceService struct {
	Customers *CustomerService
	Branches  *BranchService
}

func NewReferenceService(customers *CustomerService, branches *BranchService) *ReferenceService {
	return &ReferenceService{Customers: customers, Branches: branches}
}

type RefreshResult struct {
	Customers      int    `json:"customers"`
	CustomerSource Source `json:"customer_source"`
	Branches       int    `json:"branches"`
	BranchSource   Source `json:"branch_source"`
}

// RefreshAll runs both fetchers concurrently and waits for both, so one
// exhausted list never cuts the other short. A fetcher that is already
// running is skipped rather than reported as a failure.
func (s *ReferenceService) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	var result RefreshResult
	var g errgroup.Group

	g.Go(func() error {
		list, err := s.Customers.ListCustomers(ctx)
		if errors.Is(err, ErrFetchInProgress) {
			result.CustomerSource = SourceNone
			return nil
		}
		if err != nil {
			return err
		}
		result.Customers = len(list.Customers)
		result.CustomerSource = list.Source
		return nil
	})

	g.Go(func() error {
		branches, source, err := s.Branches.ListBranches(ctx)
		if errors.Is(err, ErrFetchInProgress) {
			result.BranchSource = SourceNone
			return nil
		}
		if err != nil {
			return err
		}
		result.Branches = len(branches)
		result.BranchSource = source
		return nil
	})

	if err := g.Wait(); err != nil {
		return &result, err
	}
	return &result, nil
}
