package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// TaskError accumulates the errors produced while filling a batch of
// documents. A single failed document never aborts the batch.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Job names a document source for bulk filling. Open is called on a worker
// goroutine; it typically parses a file or fetches a fixture.
type Job struct {
	Name string
	Open func() (Document, error)
}

// JobResult pairs a job name with its fill outcome. Jobs whose Open failed
// have no result and are reported through the aggregated error instead.
type JobResult struct {
	Name   string
	Result Result
}

// BulkFiller fills many documents concurrently with a bounded worker pool.
type BulkFiller struct {
	workers int
}

// NewBulkFiller creates a BulkFiller with the provided concurrency.
func NewBulkFiller(workers int) *BulkFiller {
	if workers <= 0 {
		workers = 4
	}
	return &BulkFiller{workers: workers}
}

// FillAll runs Autofill over every job. Results are returned in job order;
// per-job open failures are aggregated into a TaskError. Context
// cancellation aborts the remaining jobs and is returned as-is.
func (b *BulkFiller) FillAll(ctx context.Context, jobs []Job, vals ValueSource, settings Settings) ([]JobResult, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	results := make([]JobResult, len(jobs))
	indexCh := make(chan int)
	errCh := make(chan error, len(jobs))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			job := jobs[idx]
			doc, err := job.Open()
			if err != nil {
				select {
				case errCh <- fmt.Errorf("%s: %w", job.Name, err):
				case <-ctx.Done():
					return
				}
				continue
			}
			results[idx] = JobResult{Name: job.Name, Result: Autofill(doc, vals, settings)}
		}
	}

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := range jobs {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return results, err
		}
		taskErr.append(err)
	}
	return results, taskErr.asError()
}
