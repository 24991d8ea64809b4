package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolExecute(t *testing.T) {
	var calls atomic.Int32
	pool := NewPool(3, func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		if n < 0 {
			return 0, errors.New("negative")
		}
		return n * n, nil
	})

	inputs := []int{1, 2, -3, 4, 5}
	tasks := pool.Execute(context.Background(), inputs)

	if len(tasks) != len(inputs) || calls.Load() != int32(len(inputs)) {
		t.Fatalf("tasks %d calls %d", len(tasks), calls.Load())
	}
	for i, task := range tasks {
		if task.Input != inputs[i] {
			t.Errorf("task %d input = %d, want %d", i, task.Input, inputs[i])
		}
		if inputs[i] < 0 {
			if task.Err == nil {
				t.Errorf("task %d: expected error", i)
			}
			continue
		}
		if task.Err != nil || task.Result != inputs[i]*inputs[i] {
			t.Errorf("task %d = %d, %v", i, task.Result, task.Err)
		}
	}
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(2, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})
	tasks := pool.Execute(ctx, []int{1, 2, 3})
	for i, task := range tasks {
		// with a cancelled context some inputs may still be picked up
		if task.Err != nil && !errors.Is(task.Err, context.Canceled) {
			t.Errorf("task %d err = %v", i, task.Err)
		}
		if task.Input != i+1 {
			t.Errorf("task %d input = %d", i, task.Input)
		}
	}
}

func TestNewPoolMinimumWorkers(t *testing.T) {
	pool := NewPool(0, func(ctx context.Context, n int) (int, error) { return n, nil })
	if pool.workers != 1 {
		t.Errorf("workers = %d, want 1", pool.workers)
	}
	tasks := pool.Execute(context.Background(), []int{7})
	if tasks[0].Result != 7 {
		t.Errorf("result = %d", tasks[0].Result)
	}
}
