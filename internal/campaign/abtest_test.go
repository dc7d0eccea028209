package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/amorlink/engage/internal/domain"
	"github.com/amorlink/engage/internal/pkg/distlock"
)

type memExperimentStore struct {
	running    []domain.Experiment
	metrics    map[string][]domain.VariantMetrics
	metricsErr map[string]error
	ended      map[string]string // experiment id -> winner
	runningErr error
}

func newMemExperimentStore() *memExperimentStore {
	return &memExperimentStore{
		metrics:    map[string][]domain.VariantMetrics{},
		metricsErr: map[string]error{},
		ended:      map[string]string{},
	}
}

func (m *memExperimentStore) Running(context.Context) ([]domain.Experiment, error) {
	return m.running, m.runningErr
}

func (m *memExperimentStore) VariantMetrics(_ context.Context, id string) ([]domain.VariantMetrics, error) {
	if err, ok := m.metricsErr[id]; ok {
		return nil, err
	}
	return m.metrics[id], nil
}

func (m *memExperimentStore) End(_ context.Context, id, winner string) error {
	m.ended[id] = winner
	return nil
}

type fakeLock struct {
	held     bool
	released bool
}

func (l *fakeLock) Acquire(context.Context) (bool, error) { return !l.held, nil }
func (l *fakeLock) Release(context.Context) error         { l.released = true; return nil }

func newEvaluator(store ExperimentStore, lock distlock.DistLock) *Evaluator {
	return NewEvaluator(store, func() distlock.DistLock { return lock })
}

func TestEvaluator_EndsConfidentWinner(t *testing.T) {
	store := newMemExperimentStore()
	store.running = []domain.Experiment{{ID: "exp-1", Status: domain.ExperimentRunning}}
	// 30% vs 15% on 500 sends each is well past z = 1.96.
	store.metrics["exp-1"] = []domain.VariantMetrics{
		{VariantID: "a", Sends: 500, Conversions: 150},
		{VariantID: "b", Sends: 500, Conversions: 75},
	}
	lock := &fakeLock{}

	result, err := newEvaluator(store, lock).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["ended"] != 1 {
		t.Errorf("result = %v, want one ended experiment", result)
	}
	if store.ended["exp-1"] != "a" {
		t.Errorf("winner = %q, want variant a", store.ended["exp-1"])
	}
	if !lock.released {
		t.Error("evaluation lock was not released")
	}
}

func TestEvaluator_HoldsBelowMinimumSample(t *testing.T) {
	store := newMemExperimentStore()
	store.running = []domain.Experiment{{ID: "exp-1", Status: domain.ExperimentRunning}}
	// Huge rate gap but one variant is under the sample floor.
	store.metrics["exp-1"] = []domain.VariantMetrics{
		{VariantID: "a", Sends: 500, Conversions: 300},
		{VariantID: "b", Sends: 50, Conversions: 1},
	}

	result, err := newEvaluator(store, &fakeLock{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["ended"] != 0 {
		t.Errorf("result = %v, want nothing ended", result)
	}
	if len(store.ended) != 0 {
		t.Error("undersampled experiment was ended")
	}
}

func TestEvaluator_HoldsWithoutConfidence(t *testing.T) {
	store := newMemExperimentStore()
	store.running = []domain.Experiment{{ID: "exp-1", Status: domain.ExperimentRunning}}
	// 20.0% vs 19.6% on 500 sends is statistical noise.
	store.metrics["exp-1"] = []domain.VariantMetrics{
		{VariantID: "a", Sends: 500, Conversions: 100},
		{VariantID: "b", Sends: 500, Conversions: 98},
	}

	result, err := newEvaluator(store, &fakeLock{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["ended"] != 0 || len(store.ended) != 0 {
		t.Errorf("inconclusive experiment was ended, result = %v", result)
	}
}

func TestEvaluator_SkipsWhenLockHeld(t *testing.T) {
	store := newMemExperimentStore()
	store.running = []domain.Experiment{{ID: "exp-1", Status: domain.ExperimentRunning}}
	store.runningErr = errors.New("store must not be touched while locked out")

	result, err := newEvaluator(store, &fakeLock{held: true}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["locked"] != true || result["evaluated"] != 0 {
		t.Errorf("result = %v, want locked no-op", result)
	}
}

func TestEvaluator_OneFailureDoesNotAbortOthers(t *testing.T) {
	store := newMemExperimentStore()
	store.running = []domain.Experiment{
		{ID: "exp-broken", Status: domain.ExperimentRunning},
		{ID: "exp-ok", Status: domain.ExperimentRunning},
	}
	store.metricsErr["exp-broken"] = errors.New("metrics query failed")
	store.metrics["exp-ok"] = []domain.VariantMetrics{
		{VariantID: "a", Sends: 500, Conversions: 150},
		{VariantID: "b", Sends: 500, Conversions: 75},
	}

	result, err := newEvaluator(store, &fakeLock{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["errors"] != 1 || result["ended"] != 1 {
		t.Errorf("result = %v, want 1 error and 1 ended", result)
	}
	if store.ended["exp-ok"] != "a" {
		t.Error("healthy experiment was not evaluated after a failing one")
	}
}
