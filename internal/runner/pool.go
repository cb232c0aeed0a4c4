package runner

import (
	"context"
	"sync"
)

// workerOutput is one finished job. output is rendered by the worker and
// written by the handler so results reach the terminal in job order.
type workerOutput struct {
	index  int
	label  string
	output []byte
	err    error
}

// OrderedPool runs process over jobs on up to workers goroutines and calls
// handle in job-index order. Jobs must carry dense indices starting at 0.
// After ctx is done, jobs not yet sent and results not yet produced are
// dropped and ctx.Err() is returned.
func OrderedPool[J any](
	ctx context.Context,
	workers int,
	jobs []J,
	process func(J) workerOutput,
	handle func(workerOutput),
) error {
	if workers <= 1 || len(jobs) <= 1 {
		for _, job := range jobs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			handle(process(job))
		}
		return nil
	}

	jobCh := make(chan J, workers)
	results := make(chan workerOutput, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if ctx.Err() != nil {
					return
				}
				out := process(job)
				select {
				case results <- out:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pending := make(map[int]workerOutput)
		next := 0
		for out := range results {
			pending[out.index] = out
			for {
				current, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				handle(current)
				next++
			}
		}
	}()

	interrupted := false
send:
	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
			interrupted = true
			break send
		}
	}
	close(jobCh)
	wg.Wait()
	close(results)
	<-done

	if interrupted || ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
