package campaign

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/amorlink/engage/internal/domain"
	"github.com/amorlink/engage/internal/pkg/distlock"
	"github.com/amorlink/engage/internal/pkg/logger"
)

// ExperimentStore is the experiment read/write model for the evaluator.
type ExperimentStore interface {
	Running(ctx context.Context) ([]domain.Experiment, error)
	VariantMetrics(ctx context.Context, experimentID string) ([]domain.VariantMetrics, error)
	// End marks the experiment ended with the winning variant. Must be a
	// no-op when the experiment is already ended.
	End(ctx context.Context, experimentID, winnerVariant string) error
}

// Evaluator is the A/B evaluation job. Unlike the mail jobs it sends
// nothing: it inspects running experiments and ends any whose leading
// variant has won with 95% confidence (two-proportion z-test, z >= 1.96).
type Evaluator struct {
	store ExperimentStore
	// newLock builds the cross-process lock so two overlapping triggers
	// cannot both end the same experiment.
	newLock func() distlock.DistLock

	minSampleSize int
	zThreshold    float64
}

// NewEvaluator creates the experiment evaluator.
func NewEvaluator(store ExperimentStore, newLock func() distlock.DistLock) *Evaluator {
	return &Evaluator{
		store:         store,
		newLock:       newLock,
		minSampleSize: 200,
		zThreshold:    1.96, // 95% confidence
	}
}

// Name identifies the job in the trigger URL.
func (e *Evaluator) Name() string { return "abtest" }

// Run evaluates every running experiment once. A failed experiment
// evaluation is logged and counted; it does not abort the others.
func (e *Evaluator) Run(ctx context.Context) (map[string]any, error) {
	lock := e.newLock()
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire evaluation lock: %w", err)
	}
	if !acquired {
		logger.Info("abtest evaluation already running elsewhere, skipping")
		return map[string]any{"evaluated": 0, "ended": 0, "locked": true}, nil
	}
	defer lock.Release(ctx)

	experiments, err := e.store.Running(ctx)
	if err != nil {
		return nil, fmt.Errorf("list running experiments: %w", err)
	}

	evaluated, ended, errs := 0, 0, 0
	for _, exp := range experiments {
		evaluated++
		winner, decided, err := e.evaluate(ctx, exp)
		if err != nil {
			logger.Error("experiment evaluation failed", "experiment", exp.ID, "error", err)
			errs++
			continue
		}
		if !decided {
			continue
		}
		if err := e.store.End(ctx, exp.ID, winner); err != nil {
			logger.Error("ending experiment failed", "experiment", exp.ID, "error", err)
			errs++
			continue
		}
		logger.Info("experiment ended", "experiment", exp.ID, "winner", winner)
		ended++
	}

	return map[string]any{"evaluated": evaluated, "ended": ended, "errors": errs}, nil
}

// evaluate decides whether the experiment has a statistically confident
// winner. Returns decided=false while the experiment should keep running.
func (e *Evaluator) evaluate(ctx context.Context, exp domain.Experiment) (winner string, decided bool, err error) {
	metrics, err := e.store.VariantMetrics(ctx, exp.ID)
	if err != nil {
		return "", false, err
	}
	if len(metrics) < 2 {
		return "", false, nil
	}
	for _, m := range metrics {
		if m.Sends < e.minSampleSize {
			return "", false, nil
		}
	}

	// Compare the two leading variants.
	sort.Slice(metrics, func(i, k int) bool {
		return metrics[i].ConversionRate() > metrics[k].ConversionRate()
	})
	best, second := metrics[0], metrics[1]

	z := twoProportionZ(best, second)
	if z < e.zThreshold {
		return "", false, nil
	}
	return best.VariantID, true, nil
}

// twoProportionZ computes the z statistic for the difference between two
// observed conversion rates under a pooled proportion.
func twoProportionZ(a, b domain.VariantMetrics) float64 {
	n1, n2 := float64(a.Sends), float64(b.Sends)
	p1, p2 := a.ConversionRate(), b.ConversionRate()
	pooled := (float64(a.Conversions) + float64(b.Conversions)) / (n1 + n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if se == 0 {
		return 0
	}
	return (p1 - p2) / se
}

// EvaluationLockTTL bounds how long a crashed evaluator can block the next
// run.
const EvaluationLockTTL = 2 * time.Minute
