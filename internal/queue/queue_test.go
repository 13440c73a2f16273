package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeInterruptsHolder(t *testing.T) {
	var q Queue

	release := q.Take()
	assert.False(t, q.IsInterrupted())

	holderDone := make(chan error, 1)
	go func() {
		defer release()
		for {
			if q.IsInterrupted() {
				holderDone <- ErrInterrupted
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	next := q.Take()
	defer next()

	select {
	case err := <-holderDone:
		assert.ErrorIs(t, err, ErrInterrupted)
	case <-time.After(time.Second):
		require.Fail(t, "holder was not interrupted")
	}
	assert.False(t, q.IsInterrupted())
}

func TestReleaseTwice(t *testing.T) {
	var q Queue

	release := q.Take()
	release()
	release()

	again := q.Take()
	again()
}
