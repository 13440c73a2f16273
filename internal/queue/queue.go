// Package queue hands a shared resource, typically the display bus, from one long-running user to
// the next. Taking a turn marks the queue interrupted; the current holder is expected to poll
// IsInterrupted, finish its transaction and release, after which the waiter proceeds.
package queue

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrInterrupted is returned by holders that gave up their turn because someone else queued.
var ErrInterrupted = errors.New("queue: interrupted")

type Queue struct {
	waiting       int
	runLock       sync.Mutex
	interruptLock sync.Mutex
}

type Unlocker func()

// Take queues for a turn and blocks until the current holder releases.
func (q *Queue) Take() Unlocker {
	q.interrupt()
	q.runLock.Lock()

	q.running()
	var once sync.Once
	return func() {
		once.Do(q.done)
	}
}

func (q *Queue) running() {
	q.interruptLock.Lock()
	defer q.interruptLock.Unlock()

	q.waiting--
}

func (q *Queue) interrupt() {
	q.interruptLock.Lock()
	defer q.interruptLock.Unlock()

	q.waiting++
	log.Debug("Added to queue: ", q.waiting)
}

// IsInterrupted reports whether anyone is waiting for a turn.
func (q *Queue) IsInterrupted() bool {
	q.interruptLock.Lock()
	defer q.interruptLock.Unlock()

	return q.waiting != 0
}

func (q *Queue) done() {
	defer q.runLock.Unlock()

	log.Debug("Released turn. Currently waiting: ", q.waiting)
	if q.waiting < 0 {
		log.Warn(errors.New("number waiting in queue less than zero"))
	}
}
