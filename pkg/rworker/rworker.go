// Package rworker runs jobs on goroutines with a bounded number of them in
// flight at once.
package rworker

import "sync"

// Job runs fn on its own goroutine once a slot in rate is free. A failure is
// forwarded to errCh when a receiver is ready and dropped otherwise.
func Job(wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate <- struct{}{}
		defer func() { <-rate }()
		if err := fn(); err != nil && errCh != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
}

// Pool groups jobs sharing one concurrency limit and one error channel.
type Pool struct {
	wg    sync.WaitGroup
	rate  chan struct{}
	errCh chan<- error
}

// New returns a pool running at most maxConcurrent jobs at a time. errCh may
// be nil when failures are handled inside the jobs.
func New(maxConcurrent int, errCh chan<- error) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{rate: make(chan struct{}, maxConcurrent), errCh: errCh}
}

func (p *Pool) Go(fn func() error) {
	Job(&p.wg, fn, p.rate, p.errCh)
}

// Wait blocks until every submitted job returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
