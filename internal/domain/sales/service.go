package sales

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Service is the sales ledger viewer. It holds no durable state; every call
// is an independent fetch against the repository.
type Service struct {
	sales Repository
}

// NewService creates a sales viewer over the given repository.
func NewService(sales Repository) *Service {
	return &Service{sales: sales}
}

// List returns all sales with their items, newest first.
func (s *Service) List(ctx context.Context) ([]Sale, error) {
	list, err := s.sales.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	return list, nil
}

// Delete removes a sale permanently. Its items cascade in the store. There
// is no soft-delete tier for sales.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.sales.Delete(ctx, id)
}

// SummaryFor fetches the ledger and aggregates the sales on ref's calendar
// day in loc.
func (s *Service) SummaryFor(ctx context.Context, ref time.Time, loc *time.Location) (Summary, error) {
	list, err := s.sales.List(ctx)
	if err != nil {
		return Summary{}, errors.Wrap(err, "list sales")
	}
	return DailySummary(list, ref, loc), nil
}
