// Package scheduler runs background work, such as publishing diagnostics,
// one task at a time and in submission order.
package scheduler

import (
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("earthlyls.scheduler")

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue chan Task
	mu        sync.Mutex
	stopped   bool
	pending   sync.WaitGroup
	done      chan struct{}
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		done:      make(chan struct{}),
	}
}

// RunScheduler starts the worker loop.
func (s *Scheduler) RunScheduler() {
	go func() {
		defer close(s.done)
		for task := range s.taskQueue {
			log.Debugf("executing %s task", task.Name)
			if err := task.Execute(); err != nil {
				log.Error("task failed", "task", task.Name, "error", err)
			}
			s.pending.Done()
		}
	}()
}

// Schedule queues task after the tasks already scheduled. It blocks while
// the queue is full and returns false once the scheduler is stopped.
func (s *Scheduler) Schedule(task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		log.Warningf("scheduler stopped, dropping %s task", task.Name)
		return false
	}
	s.pending.Add(1)
	s.taskQueue <- task
	return true
}

// Wait blocks until every task scheduled so far has run.
func (s *Scheduler) Wait() {
	s.pending.Wait()
}

// StopScheduler runs the queued tasks and stops the worker.
func (s *Scheduler) StopScheduler() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.taskQueue)
	s.mu.Unlock()

	log.Info("stopping scheduler")
	<-s.done
	log.Info("scheduler stopped")
}
