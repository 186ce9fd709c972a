package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAdvanceFiresDueTimers(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var order []int

	f.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	f.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	f.AfterFunc(5*time.Second, func() { order = append(order, 5) })

	f.Advance(3 * time.Second)

	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, f.Pending())
}

func TestFakeTimerStopPreventsFiring(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	fired := false
	timer := f.AfterFunc(time.Second, func() { fired = true })

	stopped := timer.Stop()
	assert.True(t, stopped)

	f.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestRealClockAfterFuncFires(t *testing.T) {
	r := NewReal()
	done := make(chan struct{})
	r.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}
