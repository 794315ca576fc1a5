// Package worker bounds concurrent fetches: a worker pool, a per-domain rate
// limiter, and the watchlist batch runner built on both.
package worker

import (
	"context"
	"sync"
)

// Task is a unit of work producing a T
type Task[T any] func(ctx context.Context) T

// Pool runs tasks on a fixed number of goroutines and returns results in submission order
type Pool[T any] struct {
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    chan job[T]
	wg      sync.WaitGroup

	mu      sync.Mutex
	results map[int]T
	next    int
}

type job[T any] struct {
	index int
	task  Task[T]
}

// NewPool creates a pool bound to ctx; cancelling ctx stops workers picking up new tasks
func NewPool[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool[T]{
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(chan job[T], workers*2),
		results: make(map[int]T),
	}
}

// Start launches the workers
func (p *Pool[T]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			out := j.task(p.ctx)
			p.mu.Lock()
			p.results[j.index] = out
			p.mu.Unlock()
		}
	}
}

// Submit queues a task. Returns false if the pool was cancelled first.
func (p *Pool[T]) Submit(task Task[T]) bool {
	if p.ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	idx := p.next
	p.next++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job[T]{index: idx, task: task}:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns results in submission order.
// Tasks that never ran (pool cancelled) are absent.
func (p *Pool[T]) Wait() []T {
	close(p.jobs)
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, 0, len(p.results))
	for i := 0; i < p.next; i++ {
		if r, ok := p.results[i]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Shutdown cancels outstanding work and waits for running tasks to return
func (p *Pool[T]) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// Run is a convenience for a one-shot batch
func Run[T any](ctx context.Context, workers int, tasks []Task[T]) []T {
	pool := NewPool[T](ctx, workers)
	pool.Start()
	for _, t := range tasks {
		if !pool.Submit(t) {
			break
		}
	}
	return pool.Wait()
}
