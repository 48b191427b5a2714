package services

import (
	"context"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

// MomentRepository is the persistence contract the moment service needs.
type MomentRepository interface {
	Create(ctx context.Context, in core.MomentInput) (core.Moment, error)
	List(ctx context.Context) ([]core.Moment, error)
	ListByDate(ctx context.Context, date string) ([]core.Moment, error)
	ListByCategory(ctx context.Context, category string) ([]core.Moment, error)
	Get(ctx context.Context, id int64) (core.Moment, bool, error)
	Update(ctx context.Context, id int64, in core.MomentInput) (core.UpdateResult, error)
	Delete(ctx context.Context, id int64) (core.DeleteResult, error)
	ListExpensesInRange(ctx context.Context, start, end string) ([]core.Moment, error)
	ExpenseSummaryByCategory(ctx context.Context) ([]core.CategorySummary, error)
	TotalExpenses(ctx context.Context) ([]core.CurrencyTotal, error)
}

// MomentService runs moment operations against the repository and
// announces writes that changed something.
type MomentService struct {
	repo MomentRepository
	notifier
}

// NewMomentService builds the service. publisher may be nil.
func NewMomentService(repo MomentRepository, publisher ChangePublisher) *MomentService {
	return &MomentService{repo: repo, notifier: notifier{publisher: publisher}}
}

func (s *MomentService) Create(ctx context.Context, in core.MomentInput) (core.Moment, error) {
	m, err := s.repo.Create(ctx, in)
	if err != nil {
		return core.Moment{}, err
	}
	s.notify(ctx, core.EntityMoment, core.OpCreate, m.ID)
	return m, nil
}

func (s *MomentService) List(ctx context.Context) ([]core.Moment, error) {
	return s.repo.List(ctx)
}

func (s *MomentService) ListByDate(ctx context.Context, date string) ([]core.Moment, error) {
	return s.repo.ListByDate(ctx, date)
}

func (s *MomentService) ListByCategory(ctx context.Context, category string) ([]core.Moment, error) {
	return s.repo.ListByCategory(ctx, category)
}

func (s *MomentService) Get(ctx context.Context, id int64) (core.Moment, bool, error) {
	return s.repo.Get(ctx, id)
}

func (s *MomentService) Update(ctx context.Context, id int64, in core.MomentInput) (core.UpdateResult, error) {
	res, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return core.UpdateResult{}, err
	}
	if res.Changes > 0 {
		s.notify(ctx, core.EntityMoment, core.OpUpdate, id)
	}
	return res, nil
}

func (s *MomentService) Delete(ctx context.Context, id int64) (core.DeleteResult, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return core.DeleteResult{}, err
	}
	if res.Deleted > 0 {
		s.notify(ctx, core.EntityMoment, core.OpDelete, id)
	}
	return res, nil
}

func (s *MomentService) ListExpensesInRange(ctx context.Context, start, end string) ([]core.Moment, error) {
	return s.repo.ListExpensesInRange(ctx, start, end)
}

func (s *MomentService) ExpenseSummaryByCategory(ctx context.Context) ([]core.CategorySummary, error) {
	return s.repo.ExpenseSummaryByCategory(ctx)
}

func (s *MomentService) TotalExpenses(ctx context.Context) ([]core.CurrencyTotal, error) {
	return s.repo.TotalExpenses(ctx)
}
