// Package campaign implements the externally-triggered engagement jobs:
// birthday, win-back, re-engagement, digest, seasonal, milestone, and the
// A/B experiment evaluator.
//
// Every mail job is a Job value; the Runner executes the uniform batch
// contract around it: select once, guard-check per recipient immediately
// before dispatch, claim an outcome slot atomically, send, record the
// outcome, and aggregate {sent, skipped, errors}. One recipient's failure
// never aborts the rest of the batch.
//
// The service owns no timer. An external scheduler hits each job's HTTP
// entry point; invoking the same job twice concurrently is safe because
// the outcome claim is a unique-insert, not a check-then-act.
package campaign
