package services

import (
	"context"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

// MoneyRepository is the persistence contract the money service needs.
type MoneyRepository interface {
	Create(ctx context.Context, in core.MoneyInput) (core.MoneyRecord, error)
	List(ctx context.Context) ([]core.MoneyRecord, error)
	ListByType(ctx context.Context, typ string) ([]core.MoneyRecord, error)
	ListByDateRange(ctx context.Context, start, end string) ([]core.MoneyRecord, error)
	SummaryByType(ctx context.Context) ([]core.TypeSummary, error)
	Update(ctx context.Context, id int64, in core.MoneyInput) (core.UpdateResult, error)
	Delete(ctx context.Context, id int64) (core.DeleteResult, error)
	Get(ctx context.Context, id int64) (core.MoneyRecord, bool, error)
}

type MoneyService struct {
	repo MoneyRepository
	notifier
}

func NewMoneyService(repo MoneyRepository, publisher ChangePublisher) *MoneyService {
	return &MoneyService{repo: repo, notifier: notifier{publisher: publisher}}
}

func (s *MoneyService) Create(ctx context.Context, in core.MoneyInput) (core.MoneyRecord, error) {
	rec, err := s.repo.Create(ctx, in)
	if err != nil {
		return core.MoneyRecord{}, err
	}
	s.notify(ctx, core.EntityMoney, core.OpCreate, rec.ID)
	return rec, nil
}

func (s *MoneyService) List(ctx context.Context) ([]core.MoneyRecord, error) {
	return s.repo.List(ctx)
}

func (s *MoneyService) ListByType(ctx context.Context, typ string) ([]core.MoneyRecord, error) {
	return s.repo.ListByType(ctx, typ)
}

func (s *MoneyService) ListByDateRange(ctx context.Context, start, end string) ([]core.MoneyRecord, error) {
	return s.repo.ListByDateRange(ctx, start, end)
}

func (s *MoneyService) SummaryByType(ctx context.Context) ([]core.TypeSummary, error) {
	return s.repo.SummaryByType(ctx)
}

func (s *MoneyService) Get(ctx context.Context, id int64) (core.MoneyRecord, bool, error) {
	return s.repo.Get(ctx, id)
}

func (s *MoneyService) Update(ctx context.Context, id int64, in core.MoneyInput) (core.UpdateResult, error) {
	res, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return core.UpdateResult{}, err
	}
	if res.Changes > 0 {
		s.notify(ctx, core.EntityMoney, core.OpUpdate, id)
	}
	return res, nil
}

func (s *MoneyService) Delete(ctx context.Context, id int64) (core.DeleteResult, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return core.DeleteResult{}, err
	}
	if res.Deleted > 0 {
		s.notify(ctx, core.EntityMoney, core.OpDelete, id)
	}
	return res, nil
}
