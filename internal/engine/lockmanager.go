package engine

import (
	"context"
	"sync"
	"time"
)

// Lock keys used by the engine. The per-agent key must always be acquired
// before the board key, never the reverse.
const LockKeyBoard = "board"

// AgentLockKey returns the lock key serializing transition requests for a
// single agent.
func AgentLockKey(agentID string) string {
	return "agent:" + agentID
}

// LockManager provides named mutual-exclusion regions with strict FIFO
// ordering per key and a bounded acquisition wait. It is an explicit
// instance owned by the engine; there is no package-level lock table.
type LockManager struct {
	mu      sync.Mutex
	timeout time.Duration
	queues  map[string]*lockQueue
}

type lockQueue struct {
	held    bool
	waiters []chan struct{}
}

// NewLockManager creates a LockManager whose Acquire calls time out after
// the given bounded wait.
func NewLockManager(timeout time.Duration) *LockManager {
	return &LockManager{
		timeout: timeout,
		queues:  make(map[string]*lockQueue),
	}
}

// Acquire takes the named lock, queuing behind earlier callers in arrival
// order. It returns a release function that must be called exactly once;
// extra calls are no-ops. Exceeding the bounded wait returns a
// *LockTimeoutError and leaves the queue untouched.
func (lm *LockManager) Acquire(ctx context.Context, key string) (release func(), err error) {
	lm.mu.Lock()
	q, ok := lm.queues[key]
	if !ok {
		q = &lockQueue{}
		lm.queues[key] = q
	}

	if !q.held && len(q.waiters) == 0 {
		q.held = true
		lm.mu.Unlock()
		return lm.releaseFunc(key), nil
	}

	// Buffered so a release can hand the lock over without blocking.
	grant := make(chan struct{}, 1)
	q.waiters = append(q.waiters, grant)
	lm.mu.Unlock()

	timer := time.NewTimer(lm.timeout)
	defer timer.Stop()

	select {
	case <-grant:
		return lm.releaseFunc(key), nil
	case <-timer.C:
		if lm.abandon(key, grant) {
			return nil, &LockTimeoutError{Key: key, Wait: lm.timeout}
		}
		// The grant raced the timeout; we own the lock and must pass it on.
		<-grant
		lm.releaseKey(key)
		return nil, &LockTimeoutError{Key: key, Wait: lm.timeout}
	case <-ctx.Done():
		if lm.abandon(key, grant) {
			return nil, ctx.Err()
		}
		<-grant
		lm.releaseKey(key)
		return nil, ctx.Err()
	}
}

// releaseFunc wraps releaseKey so release is callable exactly once and is
// safe in a deferred cleanup path.
func (lm *LockManager) releaseFunc(key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { lm.releaseKey(key) })
	}
}

// releaseKey hands the lock to the next waiter in FIFO order, or marks the
// key free when nobody is waiting.
func (lm *LockManager) releaseKey(key string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	q, ok := lm.queues[key]
	if !ok {
		return
	}
	if len(q.waiters) > 0 {
		next := q.waiters[0]
		q.waiters = q.waiters[1:]
		next <- struct{}{}
		return
	}
	q.held = false
	delete(lm.queues, key)
}

// abandon removes a waiter from the queue. It returns false when the waiter
// was already granted the lock, in which case the caller now owns it.
func (lm *LockManager) abandon(key string, grant chan struct{}) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	q, ok := lm.queues[key]
	if !ok {
		return false
	}
	for i, w := range q.waiters {
		if w == grant {
			q.waiters = append(q.waiters[:i:i], q.waiters[i+1:]...)
			return true
		}
	}
	return false
}
