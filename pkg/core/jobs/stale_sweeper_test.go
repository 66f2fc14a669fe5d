package jobs

import (
	"context"
	"testing"
	"time"

	"deal_diligence/pkg/core/store"
	"deal_diligence/pkg/models"
)

type MockDispatcher struct {
	DispatchFunc func(dealID int64) (string, bool)
	Dispatched   []int64
}

func (m *MockDispatcher) Dispatch(dealID int64) (string, bool) {
	m.Dispatched = append(m.Dispatched, dealID)
	if m.DispatchFunc != nil {
		return m.DispatchFunc(dealID)
	}
	return "job", true
}

func TestStaleSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	sess, _ := repo.Open(ctx)

	stuck, _ := sess.CreateDeal(ctx, &models.Deal{Name: "stuck", Status: models.DealAnalyzing})
	busy, _ := sess.CreateDeal(ctx, &models.Deal{Name: "busy", Status: models.DealAnalyzing})
	_, _ = sess.CreateDeal(ctx, &models.Deal{Name: "fresh", Status: models.DealAnalyzing})
	old, _ := sess.CreateDeal(ctx, &models.Deal{Name: "done", Status: models.DealCompleted})
	for _, id := range []int64{stuck, busy, old} {
		repo.Backdate(id, time.Now().Add(-2*time.Hour))
	}

	d := &MockDispatcher{DispatchFunc: func(id int64) (string, bool) { return "job", id != busy }}
	s := NewStaleSweeper(repo, d, SweepConfig{StaleAfter: time.Hour})

	n, err := s.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("started = %d, want 1", n)
	}
	if len(d.Dispatched) != 2 || d.Dispatched[0] != stuck || d.Dispatched[1] != busy {
		t.Errorf("dispatched = %v", d.Dispatched)
	}
}

func TestStaleSweeper_StartRejectsBadSchedule(t *testing.T) {
	s := NewStaleSweeper(store.NewMemoryStore(), &MockDispatcher{}, SweepConfig{Schedule: "every tuesday"})
	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Fatal("expected schedule parse error")
	}
}

func TestStaleSweeper_StartStop(t *testing.T) {
	s := NewStaleSweeper(store.NewMemoryStore(), &MockDispatcher{}, SweepConfig{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	if s.cfg.Schedule != DefaultSweepSchedule || s.cfg.StaleAfter != DefaultStaleAfter {
		t.Errorf("defaults not applied: %+v", s.cfg)
	}
}
