package campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amorlink/engage/internal/domain"
	"github.com/amorlink/engage/internal/mailer"
	"github.com/amorlink/engage/internal/pkg/logger"
)

// Runner executes mail jobs against the guard, outcome store, and
// transport. One Runner is shared by all jobs; it holds no per-run state.
type Runner struct {
	gate      Gate
	outcomes  OutcomeStore
	transport mailer.Transport
	workers   int
	timeout   time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewRunner creates a runner with bounded parallelism and a per-run
// deadline.
func NewRunner(gate Gate, outcomes OutcomeStore, transport mailer.Transport, workers int, timeout time.Duration) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Runner{
		gate:      gate,
		outcomes:  outcomes,
		transport: transport,
		workers:   workers,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Run executes one batch of the job. Selection happens exactly once; each
// recipient is then processed in isolation, so a single failure or skip
// never aborts the batch. Returns the aggregate counts.
func (r *Runner) Run(ctx context.Context, job Job) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := r.now()
	recipients, err := job.Select(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("select recipients for %s: %w", job.Name(), err)
	}

	if !job.InWindow(now) {
		logger.Info("campaign run outside window, skipping all",
			"job", job.Name(), "eligible", len(recipients))
		return Summary{Skipped: len(recipients)}, nil
	}

	var sent, skipped, errCount atomic.Int64

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				switch r.processOne(ctx, job, recipients[idx], now) {
				case outcomeSent:
					sent.Add(1)
				case outcomeSkipped:
					skipped.Add(1)
				case outcomeError:
					errCount.Add(1)
				}
			}
		}()
	}

feed:
	for i := range recipients {
		select {
		case <-ctx.Done():
			// Run deadline hit mid-batch: sends already recorded stay
			// valid, the remainder counts as skipped for this run.
			skipped.Add(int64(len(recipients) - i))
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	summary := Summary{
		Sent:    int(sent.Load()),
		Skipped: int(skipped.Load()),
		Errors:  int(errCount.Load()),
	}
	logger.Info("campaign run finished", "job", job.Name(),
		"sent", summary.Sent, "skipped", summary.Skipped, "errors", summary.Errors)
	return summary, nil
}

type recipientOutcome int

const (
	outcomeSent recipientOutcome = iota
	outcomeSkipped
	outcomeError
)

// processOne runs the per-recipient pipeline: guard, render, claim,
// dispatch, record. Panics in job code are contained to the one recipient.
func (r *Runner) processOne(ctx context.Context, job Job, rcpt domain.Recipient, now time.Time) (result recipientOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("campaign recipient processing panicked",
				"job", job.Name(), "user_id", rcpt.UserID, "panic", fmt.Sprint(rec))
			result = outcomeError
		}
	}()

	decision, err := r.gate.MayContact(ctx, rcpt.UserID, job.Category())
	if err != nil {
		logger.Error("guard check failed", "job", job.Name(), "user_id", rcpt.UserID, "error", err)
		return outcomeError
	}
	if !decision.Allowed {
		logger.Debug("recipient suppressed", "job", job.Name(),
			"user_id", rcpt.UserID, "reason", decision.Reason)
		return outcomeSkipped
	}

	msg, err := job.Render(rcpt)
	if err != nil {
		if errors.Is(err, ErrMissingBinding) {
			logger.Debug("recipient skipped, incomplete personalization",
				"job", job.Name(), "user_id", rcpt.UserID, "error", err)
			return outcomeSkipped
		}
		logger.Error("render failed", "job", job.Name(), "user_id", rcpt.UserID, "error", err)
		return outcomeError
	}

	// Atomic claim: a concurrent run of the same job loses this insert
	// and skips, closing the check-then-send duplicate window.
	outcomeID, claimed, err := r.outcomes.Claim(ctx, rcpt.UserID, job.Category(), job.WindowKey(now, rcpt))
	if err != nil {
		logger.Error("outcome claim failed", "job", job.Name(), "user_id", rcpt.UserID, "error", err)
		return outcomeError
	}
	if !claimed {
		return outcomeSkipped
	}

	res, sendErr := r.transport.Send(ctx, msg)
	success := sendErr == nil
	failReason := ""
	if sendErr != nil {
		failReason = sendErr.Error()
	}
	if err := r.outcomes.Finish(ctx, outcomeID, success, res.ExternalID, failReason); err != nil {
		// The send already happened; a bookkeeping failure is logged but
		// must not stop the batch.
		logger.Error("outcome finish failed", "job", job.Name(),
			"user_id", rcpt.UserID, "outcome_id", outcomeID, "error", err)
	}

	if sendErr != nil {
		logger.Warn("send failed", "job", job.Name(), "user_id", rcpt.UserID, "error", sendErr)
		return outcomeError
	}
	return outcomeSent
}
