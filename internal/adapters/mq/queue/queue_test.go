package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/survivor/internal/domain/model"
)

func testJob(id string) Job {
	return Job{
		RunID:      id,
		StartWeek:  1,
		Entries:    []model.Entry{{Committed: map[int]string{}}},
		Trials:     1000,
		Seed:       42,
		EnqueuedAt: time.Now(),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	// Test enqueue
	if !q.Enqueue(ctx, testJob("run1")) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	jobChan := q.Dequeue(ctx)
	job := <-jobChan
	if job.RunID != "run1" {
		t.Errorf("expected run1, got %v", job.RunID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, testJob("run1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, testJob("run2")) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, testJob("run3")) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if q.IsClosed() {
		t.Error("expected queue to start open")
	}

	if !q.Enqueue(ctx, testJob("run1")) {
		t.Error("expected enqueue to succeed")
	}

	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}

	// Closing twice is a no-op
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}

	// Enqueue after close must be rejected
	if q.Enqueue(ctx, testJob("run2")) {
		t.Error("expected enqueue to fail after close")
	}

	// The job enqueued before close still drains
	jobChan := q.Dequeue(ctx)
	job, ok := <-jobChan
	if !ok {
		t.Fatal("expected buffered job before channel close")
	}
	if job.RunID != "run1" {
		t.Errorf("expected run1, got %v", job.RunID)
	}

	// Channel closes once drained
	if _, ok := <-jobChan; ok {
		t.Error("expected dequeue channel to be closed")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000), WithBufferSize(1000))
	ctx := context.Background()
	numGoroutines := 10
	numJobs := 100

	// Start producer goroutines
	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numJobs; j++ {
				job := testJob(fmt.Sprintf("run-%d-%d", id, j))
				if !q.Enqueue(ctx, job) {
					t.Errorf("enqueue failed for run-%d-%d", id, j)
				}
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("producers timed out")
		}
	}

	if l := q.Len(ctx); l != numGoroutines*numJobs {
		t.Errorf("expected length %d, got %d", numGoroutines*numJobs, l)
	}

	// Drain everything
	jobChan := q.Dequeue(ctx)
	received := make(map[string]bool)
	for i := 0; i < numGoroutines*numJobs; i++ {
		select {
		case job := <-jobChan:
			received[job.RunID] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("drain timed out after %d jobs", i)
		}
	}

	if len(received) != numGoroutines*numJobs {
		t.Errorf("expected %d distinct jobs, got %d", numGoroutines*numJobs, len(received))
	}
}

func TestInMemoryQueue_ContextCancellation(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())

	jobChan := q.Dequeue(ctx)
	cancel()

	if !q.Enqueue(context.Background(), testJob("run1")) {
		t.Error("expected enqueue to succeed on live context")
	}

	// Give the forwarding goroutine time to observe the cancellation
	// before anyone receives; it must close the channel without
	// delivering the buffered job.
	time.Sleep(100 * time.Millisecond)
	if _, ok := <-jobChan; ok {
		t.Error("did not expect a job after cancellation")
	}
}
