package batch

import (
	"runtime"
	"sync"
)

// WorkerPool runs jobs on a fixed number of goroutines and collects their
// results.
type WorkerPool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool with numWorkers workers. If numWorkers is 0 or
// negative, it defaults to the number of CPUs. If numJobs is less than numWorkers, the
// pool is sized to match numJobs. Both channels hold numJobs entries, so
// Submit never blocks when exactly numJobs jobs are submitted.
func NewWorkerPool[Job any, Result any](numWorkers, numJobs int) *WorkerPool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}

	return &WorkerPool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numJobs),
		results:    make(chan Result, numJobs),
	}
}

// Workers returns the number of workers the pool starts.
func (p *WorkerPool[Job, Result]) Workers() int {
	return p.numWorkers
}

// Start launches the workers. workerFn is called once per job.
func (p *WorkerPool[Job, Result]) Start(workerFn func(Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- workerFn(job)
			}
		}()
	}
}

// Submit queues a job.
func (p *WorkerPool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// Close stops accepting jobs. The results channel is closed once every worker
// has finished.
func (p *WorkerPool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the results channel.
func (p *WorkerPool[Job, Result]) Results() <-chan Result {
	return p.results
}
