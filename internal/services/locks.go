package services

import "sync"

// workflowLocks serializes mutations per workflow ID. Dispatch, reconcile
// and advance on the same workflow must not interleave; operations on
// different workflows proceed in parallel.
type workflowLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newWorkflowLocks() *workflowLocks {
	return &workflowLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the given workflow and returns its unlock
// function. Lock entries are kept for the life of the process; the set of
// workflows a single instance touches is small.
func (l *workflowLocks) acquire(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
