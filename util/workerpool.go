package meiliutil

import (
	"runtime/debug"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// WorkerPoolStoppedError is returned when a task is submitted to a stopped
// pool.
type WorkerPoolStoppedError struct{}

// Returns the error message.
func (e *WorkerPoolStoppedError) Error() string {
	return "worker pool is stopped"
}

// WorkerPool runs the submitted tasks on a fixed number of workers. The
// tasks channel is unbuffered, so Submit blocks until a worker is free.
// It bounds the number of tasks running at the same time without dropping
// any of them.
type WorkerPool struct {
	// Workers receive the tasks on this channel.
	tasks chan func()
	// Number of workers currently running a task.
	busy atomic.Int32
	// Indicates that the pool is stopped.
	stopped bool
	// Protects against concurrent calls to Submit and Stop.
	mutex sync.Mutex
	// Tracks the running workers.
	wg sync.WaitGroup
}

// Instantiates a new pool with the specified number of workers. The size
// must be positive; it is capped at one otherwise.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	pool := &WorkerPool{
		tasks: make(chan func()),
	}
	// Ensure that all workers are started before returning.
	var started sync.WaitGroup
	started.Add(size)
	pool.wg.Add(size)
	for i := 0; i < size; i++ {
		go pool.worker(&started)
	}
	started.Wait()
	return pool
}

// Worker function reading the tasks from the channel until it is closed.
func (p *WorkerPool) worker(started *sync.WaitGroup) {
	defer p.wg.Done()
	started.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// Runs a single task. A panicking task is logged and doesn't take the
// worker down.
func (p *WorkerPool) run(task func()) {
	p.busy.Add(1)
	defer func() {
		p.busy.Add(-1)
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"recovered": r,
				"stack":     string(debug.Stack()),
			}).Error("Worker pool task panicked")
		}
	}()
	task()
}

// Submits a new task. It blocks until a worker picks the task up.
func (p *WorkerPool) Submit(task func()) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.stopped {
		return &WorkerPoolStoppedError{}
	}
	p.tasks <- task
	return nil
}

// Returns the number of workers currently running a task.
func (p *WorkerPool) Busy() int {
	return int(p.busy.Load())
}

// Stops the pool and waits for the running tasks to complete. It is safe
// to call it multiple times.
func (p *WorkerPool) Stop() {
	p.mutex.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.tasks)
	}
	p.mutex.Unlock()
	p.wg.Wait()
}
