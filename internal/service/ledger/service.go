// Package ledger owns the in-memory sale history backed by a durable
// repository. Loaded once at startup; every mutation flushes before
// returning so dependent side effects never run ahead of the record.
package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"venusstore/internal/domain"
	salerepo "venusstore/internal/repository/sale"
)

// Service holds the ordered sale history and aggregates it for reports.
type Service struct {
	mu     sync.Mutex
	repo   salerepo.Repository
	sales  []domain.Sale
	logger *log.Logger
}

// New creates a Service. Call Load before serving.
func New(repo salerepo.Repository, logger *log.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Load reads the full history from the repository.
func (s *Service) Load(ctx context.Context) error {
	sales, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sales = sales
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Printf("ledger loaded: %d sales", len(sales))
	}
	return nil
}

// Append records one sale, flushing durably before returning. On flush
// failure the in-memory history is unchanged and the error propagates to the
// caller, which must abort settlement.
func (s *Service) Append(ctx context.Context, sale domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Append(ctx, sale); err != nil {
		return err
	}
	s.sales = append(s.sales, sale)
	return nil
}

// Clear drops the entire history. Irreversible.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Reset(ctx); err != nil {
		return err
	}
	s.sales = nil
	return nil
}

// Aggregate sums price and count over sales with SoldAt >= since.
func (s *Service) Aggregate(since time.Time) (total float64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range s.sales {
		if !sale.SoldAt.Before(since) {
			total += sale.Price
			count++
		}
	}
	return total, count
}

// Window is one line of a sales report.
type Window struct {
	Total float64
	Count int
}

// Report holds the four standard sales windows.
type Report struct {
	Today   Window
	Last7d  Window
	Last30d Window
	AllTime Window
}

// Report aggregates sales relative to the given instant: since local
// midnight, last 7 days, last 30 days, and all time.
func (s *Service) Report(now time.Time) Report {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var r Report
	r.Today.Total, r.Today.Count = s.Aggregate(midnight)
	r.Last7d.Total, r.Last7d.Count = s.Aggregate(midnight.AddDate(0, 0, -7))
	r.Last30d.Total, r.Last30d.Count = s.Aggregate(midnight.AddDate(0, 0, -30))
	r.AllTime.Total, r.AllTime.Count = s.Aggregate(time.Time{})
	return r
}
