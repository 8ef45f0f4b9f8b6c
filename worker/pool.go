// Package worker provides a fixed-size pool for fire-and-forget tasks.
package worker

import (
	"log"
	"sync"
)

type Pool struct {
	name  string
	tasks chan func()
	wg    sync.WaitGroup
}

// New starts size workers draining a shared task queue. The name shows up in
// panic logs so the pools are distinguishable.
func New(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{name: name, tasks: make(chan func(), 256)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.exec(task)
	}
}

// exec isolates the recover so a panicking task kills neither its worker nor
// any other queued task.
func (p *Pool) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] task panic: %v", p.name, r)
		}
	}()
	task()
}

// Submit enqueues a task. The caller never waits for the result; it blocks
// only if the queue is full.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}
