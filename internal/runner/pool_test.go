package runner

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestOrderedPoolOrdering(t *testing.T) {
	jobs := []int{0, 1, 2, 3, 4, 5}
	var got []int

	err := OrderedPool(context.Background(), 4, jobs,
		func(job int) workerOutput {
			// Later jobs finish first.
			time.Sleep(time.Duration(6-job) * time.Millisecond)
			return workerOutput{index: job}
		},
		func(out workerOutput) {
			got = append(got, out.index)
		},
	)
	if err != nil {
		t.Fatalf("OrderedPool error: %v", err)
	}
	if !slices.Equal(got, jobs) {
		t.Fatalf("got order %v, want %v", got, jobs)
	}
}

func TestOrderedPoolShapes(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		jobs    []int
	}{
		{name: "single worker", workers: 1, jobs: []int{0, 1, 2}},
		{name: "single job", workers: 8, jobs: []int{0}},
		{name: "more workers than jobs", workers: 16, jobs: []int{0, 1}},
		{name: "zero workers runs inline", workers: 0, jobs: []int{0, 1, 2}},
		{name: "empty", workers: 4, jobs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			err := OrderedPool(context.Background(), tt.workers, tt.jobs,
				func(job int) workerOutput { return workerOutput{index: job} },
				func(out workerOutput) { got = append(got, out.index) },
			)
			if err != nil {
				t.Fatalf("OrderedPool error: %v", err)
			}
			if len(got) != len(tt.jobs) || (len(got) > 0 && !slices.Equal(got, tt.jobs)) {
				t.Fatalf("got %v, want %v", got, tt.jobs)
			}
		})
	}
}

func TestOrderedPoolPreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var processCalls int
	err := OrderedPool(ctx, 4, []int{0, 1, 2},
		func(job int) workerOutput {
			processCalls++
			return workerOutput{index: job}
		},
		func(out workerOutput) {},
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if processCalls != 0 {
		t.Fatalf("process should not be called when pre-cancelled, got %d", processCalls)
	}
}

func TestOrderedPoolCancelMidFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := make([]int, 50)
	for i := range jobs {
		jobs[i] = i
	}

	var handled atomic.Int32
	var once sync.Once
	err := OrderedPool(ctx, 4, jobs,
		func(job int) workerOutput {
			if job == 0 {
				once.Do(cancel)
			}
			time.Sleep(time.Millisecond)
			return workerOutput{index: job}
		},
		func(out workerOutput) { handled.Add(1) },
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if handled.Load() >= int32(len(jobs)) {
		t.Fatalf("expected cancellation before handling all jobs, handled=%d", handled.Load())
	}
}
