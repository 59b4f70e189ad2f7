// Package worker executes a batch of aggregation jobs off the caller's
// goroutine. Requests are self-contained and tagged with a session token;
// consumers compare tokens so stale batches can never supersede fresh
// ones. Cancellation is cooperative: superseding a session only stops its
// results from being accepted.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/KaramelBytes/chartloom-cli/internal/aggregate"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/plan"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
)

// ErrEmptyBatch rejects a structurally invalid request.
var ErrEmptyBatch = errors.New("worker: batch has no jobs")

// Request is one self-contained batch of jobs.
type Request struct {
	Session uuid.UUID
	Table   *dataset.Table
	Profile *profile.Profile
	Jobs    []plan.Job
	Options aggregate.Options
}

// JobResult pairs a job with its outcome. Err is set for rejected jobs;
// the rest of the batch is unaffected.
type JobResult struct {
	Index  int
	Job    plan.Job
	Result *aggregate.Result
	Err    error
}

// Response carries a batch's results in original job order.
type Response struct {
	Session uuid.UUID
	Results []JobResult
}

// Executor runs batches with bounded parallelism and tracks the latest
// session token.
type Executor struct {
	concurrency int

	mu     sync.Mutex
	latest uuid.UUID
}

// NewExecutor returns an executor running up to concurrency jobs at once.
func NewExecutor(concurrency int) *Executor {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Executor{concurrency: concurrency}
}

// NewSession mints a token and marks it as the latest. Any in-flight
// batch tagged with an older token becomes stale.
func (e *Executor) NewSession() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latest = uuid.New()
	return e.latest
}

// Accept reports whether a response belongs to the latest session.
func (e *Executor) Accept(resp *Response) bool {
	if resp == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return resp.Session == e.latest
}

// Run executes the batch. Jobs are independent and run in parallel, but
// results are reordered by original index before delivery so card order
// downstream stays stable.
func (e *Executor) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Table == nil || req.Profile == nil || len(req.Jobs) == 0 {
		return nil, ErrEmptyBatch
	}
	results := make([]JobResult, len(req.Jobs))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, job := range req.Jobs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, job plan.Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := aggregate.Execute(req.Table, job, req.Options, req.Profile)
			results[i] = JobResult{Index: i, Job: job, Result: res, Err: err}
		}(i, job)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Response{Session: req.Session, Results: results}, nil
}
