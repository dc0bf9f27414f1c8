package tracker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureLog_RingBufferNewestFirst(t *testing.T) {
	l := NewFailureLog(3)
	for i := 1; i <= 5; i++ {
		l.Record(Failure{Operation: fmt.Sprintf("op%d", i)})
	}

	require.Equal(t, 3, l.Len())
	recent := l.Recent(0)
	assert.Equal(t, "op5", recent[0].Operation)
	assert.Equal(t, "op4", recent[1].Operation)
	assert.Equal(t, "op3", recent[2].Operation)

	assert.Len(t, l.Recent(2), 2)
	assert.Len(t, l.Recent(10), 3)
}

func TestRecordFailure_CountsAndKeeps(t *testing.T) {
	tr := New(nil)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tr.SetClock(func() time.Time { return fixed })

	tr.RecordFailure("divide", errors.New("division by zero"), 2*time.Millisecond)

	assert.Equal(t, uint64(1), tr.Errors())
	assert.Equal(t, []Failure{{
		Operation: "divide",
		Error:     "division by zero",
		ErrorType: "*errors.errorString",
		Duration:  2 * time.Millisecond,
		Timestamp: fixed,
	}}, tr.RecentFailures(0))
}
