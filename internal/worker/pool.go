// Package worker provides a bounded pool for running per-repository
// operations concurrently while keeping each repository's output intact.
package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"multigit/internal/config"
)

var ErrInvalidCapacity = errors.New("invalid worker capacity")

// JobFunc runs one repository operation, writing all of its output to the
// supplied writers. It must not write anywhere else.
type JobFunc func(ctx context.Context, repo config.Repository, out, errOut io.Writer) error

// Result is the outcome of one job together with the output it produced.
// Index is the repository's position in the configured list.
type Result struct {
	Index  int
	Repo   config.Repository
	Out    []byte
	ErrOut []byte
	Err    error
}

type task struct {
	index  int
	repo   config.Repository
	result chan<- Result
}

// Pool runs repository jobs with bounded concurrency. Each job gets its
// own output buffers, so jobs never interleave on the console; the caller
// flushes completed results in list order.
type Pool struct {
	capacity int
	tasks    chan task
	wg       sync.WaitGroup
	active   atomic.Int32
	done     atomic.Int64
}

func NewPool(capacity, queueSize int) (*Pool, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if queueSize < capacity {
		queueSize = capacity
	}
	return &Pool{
		capacity: capacity,
		tasks:    make(chan task, queueSize),
	}, nil
}

// Start launches the workers. fn is shared by all of them.
func (p *Pool) Start(ctx context.Context, fn JobFunc) {
	for i := 0; i < p.capacity; i++ {
		p.wg.Add(1)
		go p.worker(ctx, fn)
	}
}

// Submit queues one repository. Blocks when the queue is full.
func (p *Pool) Submit(index int, repo config.Repository, results chan<- Result) {
	p.tasks <- task{index: index, repo: repo, result: results}
}

// Close stops accepting work; workers drain the queue and exit.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}

// ActiveWorkers returns how many jobs are running right now.
func (p *Pool) ActiveWorkers() int { return int(p.active.Load()) }

// CompletedTasks returns how many jobs have finished.
func (p *Pool) CompletedTasks() int64 { return p.done.Load() }

func (p *Pool) worker(ctx context.Context, fn JobFunc) {
	defer p.wg.Done()
	for t := range p.tasks {
		p.active.Add(1)
		var out, errOut bytes.Buffer
		err := ctx.Err()
		if err == nil {
			err = fn(ctx, t.repo, &out, &errOut)
		}
		p.active.Add(-1)
		p.done.Add(1)
		t.result <- Result{
			Index:  t.index,
			Repo:   t.repo,
			Out:    out.Bytes(),
			ErrOut: errOut.Bytes(),
			Err:    err,
		}
	}
}
