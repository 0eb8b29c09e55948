package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/survivor/internal/adapters/mq/queue"
	worker "github.com/okian/survivor/internal/adapters/mq/worker"
	model "github.com/okian/survivor/internal/domain/model"
	logging "github.com/okian/survivor/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobChan    chan queue.Job
	closeError error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		jobChan: make(chan queue.Job, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobChan
}

func (mq *mockQueue) Close() error {
	close(mq.jobChan)
	return mq.closeError
}

func (mq *mockQueue) addJob(job queue.Job) {
	mq.jobChan <- job
}

type mockRunner struct {
	results map[string]model.SimulationResult
	errors  map[string]error
	mu      sync.RWMutex
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		results: make(map[string]model.SimulationResult),
		errors:  make(map[string]error),
	}
}

func (mr *mockRunner) Run(ctx context.Context, startWeek int, entries []model.Entry, trials int, seed int64) (model.SimulationResult, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	key := runKey(startWeek, trials)
	if err, exists := mr.errors[key]; exists {
		return model.SimulationResult{}, err
	}
	if result, exists := mr.results[key]; exists {
		return result, nil
	}
	return model.SimulationResult{
		RunID:              "fresh-id",
		Trials:             trials,
		Seed:               seed,
		OverallProbability: 0.5,
	}, nil
}

func (mr *mockRunner) setResult(startWeek, trials int, result model.SimulationResult) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.results[runKey(startWeek, trials)] = result
}

func (mr *mockRunner) setError(startWeek, trials int, err error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.errors[runKey(startWeek, trials)] = err
}

func runKey(startWeek, trials int) string {
	return fmt.Sprintf("%d:%d", startWeek, trials)
}

type mockSink struct {
	started   map[string]bool
	completed map[string]model.SimulationResult
	failed    map[string]error
	mu        sync.RWMutex
}

func newMockSink() *mockSink {
	return &mockSink{
		started:   make(map[string]bool),
		completed: make(map[string]model.SimulationResult),
		failed:    make(map[string]error),
	}
}

func (ms *mockSink) Started(ctx context.Context, runID string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.started[runID] = true
}

func (ms *mockSink) Complete(ctx context.Context, runID string, result model.SimulationResult) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.completed[runID] = result
}

func (ms *mockSink) Fail(ctx context.Context, runID string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failed[runID] = err
}

func (ms *mockSink) getCompleted(runID string) (model.SimulationResult, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	result, exists := ms.completed[runID]
	return result, exists
}

func (ms *mockSink) getFailed(runID string) (error, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	err, exists := ms.failed[runID]
	return err, exists
}

func (ms *mockSink) wasStarted(runID string) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.started[runID]
}

func testJob(runID string, startWeek, trials int) queue.Job {
	return queue.Job{
		RunID:      runID,
		StartWeek:  startWeek,
		Entries:    []model.Entry{{Committed: map[int]string{}}},
		Trials:     trials,
		Seed:       7,
		EnqueuedAt: time.Now(),
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		q := newMockQueue()
		runner := newMockRunner()
		sink := newMockSink()

		convey.Convey("When creating a worker with default options", func() {
			w := worker.NewInMemoryWorker(q, runner, sink)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewInMemoryWorker(
				q, runner, sink,
				worker.WithName("test-worker"),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(q, runner, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go w.Run(ctx)

			// Give worker time to start
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And when processing a job", func() {
				runner.setResult(3, 500, model.SimulationResult{
					RunID:              "simulator-id",
					Trials:             500,
					Seed:               7,
					OverallProbability: 0.42,
				})

				q.addJob(testJob("run-1", 3, 500))

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then it should record the result under the submission ID", func() {
					convey.So(sink.wasStarted("run-1"), convey.ShouldBeTrue)
					result, completed := sink.getCompleted("run-1")
					convey.So(completed, convey.ShouldBeTrue)
					convey.So(result.RunID, convey.ShouldEqual, "run-1")
					convey.So(result.OverallProbability, convey.ShouldEqual, 0.42)
				})
			})

			convey.Convey("And when the simulation fails", func() {
				runner.setError(4, 100, errors.New("simulation error"))

				q.addJob(testJob("run-2", 4, 100))

				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then it should record the failure", func() {
					_, completed := sink.getCompleted("run-2")
					convey.So(completed, convey.ShouldBeFalse)
					err, failed := sink.getFailed("run-2")
					convey.So(failed, convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, "simulation error")
				})
			})
		})

		convey.Convey("When shutting down a worker", func() {
			w := worker.NewInMemoryWorker(q, runner, sink)
			ctx := context.Background()

			go w.Run(ctx)
			time.Sleep(10 * time.Millisecond)

			convey.Convey("Then shutdown should complete cleanly", func() {
				shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
				defer cancel()
				err := w.Shutdown(shutdownCtx)
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		runner := newMockRunner()
		sink := newMockSink()

		convey.Convey("When creating a pool with an explicit size", func() {
			pool := worker.NewPool(3, q, runner, sink)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running jobs through the pool", func() {
			pool := worker.NewPool(2, q, runner, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)
			time.Sleep(10 * time.Millisecond)

			for i := 0; i < 5; i++ {
				q.addJob(testJob(fmt.Sprintf("pool-run-%d", i), 1, 100))
			}

			time.Sleep(100 * time.Millisecond)

			convey.Convey("Then every job should complete exactly once", func() {
				for i := 0; i < 5; i++ {
					result, completed := sink.getCompleted(fmt.Sprintf("pool-run-%d", i))
					convey.So(completed, convey.ShouldBeTrue)
					convey.So(result.Trials, convey.ShouldEqual, 100)
				}
			})
		})

		convey.Convey("When shutting down the pool", func() {
			pool := worker.NewPool(2, q, runner, sink)
			ctx := context.Background()

			pool.Start(ctx)
			time.Sleep(10 * time.Millisecond)

			convey.Convey("Then shutdown should close the queue and return", func() {
				err := pool.Shutdown(ctx)
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}
