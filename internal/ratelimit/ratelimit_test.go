package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAllow_BurstThenDeny(t *testing.T) {
	l := New(0.001, 2)
	defer l.Stop()

	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))

	// other keys keep their own bucket
	assert.True(t, l.Allow("u2"))
}

func TestSweep_DropsIdleBuckets(t *testing.T) {
	l := New(1, 1)
	defer l.Stop()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("old")
	clock = clock.Add(idleTTL + time.Second)
	l.Allow("fresh")

	l.sweep()
	assert.Equal(t, 1, l.Len())
}

func TestStop_Idempotent(t *testing.T) {
	l := New(1, 1)
	l.Stop()
	l.Stop()
}
